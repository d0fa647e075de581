package service

import (
	"fmt"
	"math"
	"sort"

	"gradebook/backend/internal/model"
	apperrors "gradebook/backend/pkg/errors"
)

// requiredScoreScale 保研评分细则中必修课成绩折算为 80 分制的系数
const requiredScoreScale = 0.8

// ScoreError 汇总时遇到既非数字也非“通过/免修”的成绩
type ScoreError struct {
	Row        int
	CourseName string
	Value      string
}

func (e *ScoreError) Error() string {
	return fmt.Sprintf("第 %d 行（%s）的成绩 %q 既不是数字也不是“通过/免修”", e.Row, e.CourseName, e.Value)
}

func (e *ScoreError) Unwrap() error { return apperrors.ErrData }

type weightedRow struct {
	score      float64
	credit     float64
	gradePoint float64
	category   model.Category
}

// Aggregate 计算加权平均分与加权平均绩点。纯函数，每次基于当前记录重新计算。
//
// 步骤：
//  1. 剔除学分为 0 或成绩为“通过”的行
//  2. “免修”按 90 分计
//  3. 其余无法识别的成绩返回 *ScoreError
//  4. 分别对全部课程与必修课计算学分加权平均；学分和为 0 时结果为 NaN
//  5. 按课程属性分组计算简单平均分
func Aggregate(records []model.CourseRecord) (*model.Summary, error) {
	counted := make([]weightedRow, 0, len(records))
	excluded := 0

	for i, r := range records {
		if r.Credit == 0 || r.Score.Kind == model.ScorePass {
			excluded++
			continue
		}
		score, ok := r.Score.Numeric()
		if !ok {
			return nil, &ScoreError{Row: i, CourseName: r.CourseName, Value: r.Score.Text}
		}
		counted = append(counted, weightedRow{
			score:      score,
			credit:     r.Credit,
			gradePoint: r.GradePoint,
			category:   r.Category,
		})
	}

	required := make([]weightedRow, 0, len(counted))
	for _, w := range counted {
		if w.category == model.CategoryRequired {
			required = append(required, w)
		}
	}

	avgScore, avgGP, totalCredits := weightedAverage(counted)
	reqScore, reqGP, reqCredits := weightedAverage(required)

	return &model.Summary{
		AverageScore:              avgScore,
		AverageGradePoint:         avgGP,
		RequiredAverageScore:      reqScore,
		RequiredAverageGradePoint: reqGP,
		RequiredScoreOutOf80:      reqScore * requiredScoreScale,
		TotalCredits:              totalCredits,
		RequiredCredits:           reqCredits,
		CountedRows:               len(counted),
		ExcludedRows:              excluded,
		CategoryMeans:             categoryMeans(counted),
	}, nil
}

func weightedAverage(rows []weightedRow) (score, gradePoint, credits float64) {
	var scoreSum, gpSum float64
	for _, w := range rows {
		credits += w.credit
		scoreSum += w.score * w.credit
		gpSum += w.gradePoint * w.credit
	}
	if credits <= 0 {
		return math.NaN(), math.NaN(), credits
	}
	return scoreSum / credits, gpSum / credits, credits
}

// categoryMeans 分组键按字典序排列
func categoryMeans(rows []weightedRow) []model.CategoryMean {
	sums := make(map[model.Category]float64)
	counts := make(map[model.Category]int)
	for _, w := range rows {
		sums[w.category] += w.score
		counts[w.category]++
	}

	keys := make([]model.Category, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	means := make([]model.CategoryMean, 0, len(keys))
	for _, k := range keys {
		means = append(means, model.CategoryMean{
			Category:  k,
			MeanScore: sums[k] / float64(counts[k]),
			Count:     counts[k],
		})
	}
	return means
}
