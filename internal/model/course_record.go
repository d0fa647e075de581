package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ── 成绩表固定列名 ──

const (
	ColumnCourseName = "课程名称"
	ColumnScore      = "成绩"
	ColumnCredit     = "学分"
	ColumnGradePoint = "绩点"
	ColumnCategory   = "课程属性"
)

// RequiredColumns 成绩表必须包含的五列（默认写出顺序）
var RequiredColumns = []string{ColumnCourseName, ColumnScore, ColumnCredit, ColumnGradePoint, ColumnCategory}

// Category 课程属性
type Category string

const (
	CategoryRequired Category = "必修"
	CategoryElective Category = "任选"
)

// Valid 是否为可编辑的两种课程属性之一
func (c Category) Valid() bool {
	return c == CategoryRequired || c == CategoryElective
}

// ── 成绩 ──

// ScoreKind 成绩单元格的取值类别
type ScoreKind int

const (
	ScoreNumeric ScoreKind = iota
	ScorePass              // 通过：不计入加权
	ScoreExempt            // 免修：按 90 分计
	ScoreInvalid           // 无法识别的文本
)

const (
	ScoreTextPass   = "通过"
	ScoreTextExempt = "免修"

	// ExemptScoreValue 免修课程参与加权时使用的分数
	ExemptScoreValue = 90.0
)

// Score 成绩单元格。数值成绩存 Value，其余保留原始文本。
type Score struct {
	Kind  ScoreKind
	Value float64
	Text  string
}

// NumericScore 构造数值成绩
func NumericScore(v float64) Score {
	return Score{Kind: ScoreNumeric, Value: v}
}

// ParseScore 解析单元格文本
func ParseScore(raw string) Score {
	text := strings.TrimSpace(raw)
	switch text {
	case ScoreTextPass:
		return Score{Kind: ScorePass, Text: text}
	case ScoreTextExempt:
		return Score{Kind: ScoreExempt, Text: text}
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return NumericScore(v)
	}
	return Score{Kind: ScoreInvalid, Text: text}
}

// Numeric 参与加权计算的分数；通过与无效成绩返回 false
func (s Score) Numeric() (float64, bool) {
	switch s.Kind {
	case ScoreNumeric:
		return s.Value, true
	case ScoreExempt:
		return ExemptScoreValue, true
	}
	return 0, false
}

// CellValue 写回 Excel 时的单元格值
func (s Score) CellValue() interface{} {
	if s.Kind == ScoreNumeric {
		return s.Value
	}
	return s.Text
}

func (s Score) String() string {
	if s.Kind == ScoreNumeric {
		return strconv.FormatFloat(s.Value, 'f', -1, 64)
	}
	return s.Text
}

// MarshalJSON 数值成绩输出为数字，其余输出为字符串
func (s Score) MarshalJSON() ([]byte, error) {
	if s.Kind == ScoreNumeric {
		return json.Marshal(s.Value)
	}
	return json.Marshal(s.Text)
}

// UnmarshalJSON 同时接受数字与字符串（"通过"、"免修" 或数字文本）
func (s *Score) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = NumericScore(num)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("成绩必须为数字或文本: %w", err)
	}
	*s = ParseScore(text)
	return nil
}

// ── 课程记录 ──

// CourseRecord 成绩表中的一行
type CourseRecord struct {
	CourseName string
	Score      Score
	Credit     float64
	GradePoint float64
	Category   Category

	// Extra 五个固定列之外的其他列（列名 → 原始文本），写回时原样保留
	Extra map[string]string
}

// Clone 深拷贝
func (r CourseRecord) Clone() CourseRecord {
	if r.Extra != nil {
		extra := make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			extra[k] = v
		}
		r.Extra = extra
	}
	return r
}
