package model

import (
	"fmt"
	"strings"

	apperrors "gradebook/backend/pkg/errors"
)

// RecordTable 有序的课程记录表。行号即编辑时的寻址键。
type RecordTable struct {
	SheetName string

	// Preamble 表头之前的说明行，加载时跳过，写回时原样保留
	Preamble [][]string

	// Columns 按位置排列的表头文本（含额外列、空表头列与重名列）
	Columns []string

	Records []CourseRecord
}

// positionalKeyPrefix 空表头或重名列在 Extra 中的键前缀
const positionalKeyPrefix = "col:"

// ColumnKeys 返回每一列在 CourseRecord.Extra 中的键。
// 表头非空且首次出现时为列名本身，否则为 "col:<列号>"（列号从 1 开始）。
func ColumnKeys(columns []string) []string {
	keys := make([]string, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		name := strings.TrimSpace(c)
		if name == "" || seen[name] || strings.HasPrefix(name, positionalKeyPrefix) {
			keys[i] = fmt.Sprintf("%s%d", positionalKeyPrefix, i+1)
			continue
		}
		seen[name] = true
		keys[i] = name
	}
	return keys
}

// NewRecordTable 创建只含五个固定列的空表
func NewRecordTable(sheetName string) *RecordTable {
	cols := make([]string, len(RequiredColumns))
	copy(cols, RequiredColumns)
	return &RecordTable{SheetName: sheetName, Columns: cols}
}

// Len 行数
func (t *RecordTable) Len() int {
	return len(t.Records)
}

// Row 按行号读取记录
func (t *RecordTable) Row(i int) (CourseRecord, error) {
	if i < 0 || i >= len(t.Records) {
		return CourseRecord{}, fmt.Errorf("%w: 行号 %d，共 %d 行", apperrors.ErrIndex, i, len(t.Records))
	}
	return t.Records[i].Clone(), nil
}

// UpdateRow 替换第 i 行的五个字段，额外列保持不变
func (t *RecordTable) UpdateRow(i int, rec CourseRecord) error {
	if i < 0 || i >= len(t.Records) {
		return fmt.Errorf("%w: 行号 %d，共 %d 行", apperrors.ErrIndex, i, len(t.Records))
	}
	old := t.Records[i]
	rec = rec.Clone()
	rec.Extra = old.Extra
	t.Records[i] = rec
	return nil
}

// AppendRows 按顺序追加记录；空切片为无操作
func (t *RecordTable) AppendRows(recs ...CourseRecord) {
	for _, r := range recs {
		t.Records = append(t.Records, r.Clone())
	}
}

// Clone 深拷贝，编辑操作在副本上进行，持久化成功后再替换
func (t *RecordTable) Clone() *RecordTable {
	c := &RecordTable{
		SheetName: t.SheetName,
		Columns:   append([]string(nil), t.Columns...),
		Records:   make([]CourseRecord, len(t.Records)),
	}
	if t.Preamble != nil {
		c.Preamble = make([][]string, len(t.Preamble))
		for i, row := range t.Preamble {
			c.Preamble[i] = append([]string(nil), row...)
		}
	}
	for i, r := range t.Records {
		c.Records[i] = r.Clone()
	}
	return c
}
