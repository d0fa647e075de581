package service

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"gradebook/backend/internal/model"
	apperrors "gradebook/backend/pkg/errors"
)

const tolerance = 1e-9

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s: 期望 %v，实际 %v", name, want, got)
	}
}

func TestAggregate_Scenario(t *testing.T) {
	sm, err := Aggregate(toRecords(scenarioRows()))
	if err != nil {
		t.Fatalf("Aggregate 应成功: %v", err)
	}

	assertClose(t, "average_score", sm.AverageScore, 88.0)
	assertClose(t, "average_grade_point", sm.AverageGradePoint, 3.8)
	assertClose(t, "required average_score", sm.RequiredAverageScore, 90.0)
	assertClose(t, "required average_grade_point", sm.RequiredAverageGradePoint, 4.0)
	assertClose(t, "required_score_out_of_80", sm.RequiredScoreOutOf80, 72.0)

	if sm.CountedRows != 2 || sm.ExcludedRows != 1 {
		t.Errorf("期望计入 2 行、剔除 1 行，实际 %d/%d", sm.CountedRows, sm.ExcludedRows)
	}
	assertClose(t, "total_credits", sm.TotalCredits, 5)
	assertClose(t, "required_credits", sm.RequiredCredits, 3)
}

func TestAggregate_ExemptCountsAsNinety(t *testing.T) {
	rows := append(scenarioRows(), testRow{"Lab", "免修", 1, 5.0, "必修"})

	sm, err := Aggregate(toRecords(rows))
	if err != nil {
		t.Fatalf("Aggregate 应成功: %v", err)
	}

	assertClose(t, "average_score", sm.AverageScore, (90*3+85*2+90*1)/6.0)
	assertClose(t, "required average_score", sm.RequiredAverageScore, (90*3+90*1)/4.0)
	assertClose(t, "required average_grade_point", sm.RequiredAverageGradePoint, (4.0*3+5.0*1)/4.0)
	assertClose(t, "required_score_out_of_80", sm.RequiredScoreOutOf80, sm.RequiredAverageScore*0.8)
}

func TestAggregate_ExemptPositionIndependent(t *testing.T) {
	a := toRecords([]testRow{{"Lab", "免修", 2, 4, "任选"}, {"Math", 80, 2, 3, "任选"}})
	b := toRecords([]testRow{{"Math", 80, 2, 3, "任选"}, {"Lab", "免修", 2, 4, "任选"}})

	smA, _ := Aggregate(a)
	smB, _ := Aggregate(b)
	assertClose(t, "average_score", smA.AverageScore, 85)
	assertClose(t, "average_score (reordered)", smB.AverageScore, 85)
}

func TestAggregate_PassExcluded(t *testing.T) {
	base, _ := Aggregate(toRecords(scenarioRows()))
	rows := append(scenarioRows(), testRow{"Seminar", "通过", 1, 0, "任选"})

	sm, err := Aggregate(toRecords(rows))
	if err != nil {
		t.Fatalf("Aggregate 应成功: %v", err)
	}
	assertClose(t, "average_score", sm.AverageScore, base.AverageScore)
	assertClose(t, "average_grade_point", sm.AverageGradePoint, base.AverageGradePoint)
	assertClose(t, "required average_score", sm.RequiredAverageScore, base.RequiredAverageScore)
	if sm.ExcludedRows != 2 {
		t.Errorf("期望剔除 2 行，实际 %d", sm.ExcludedRows)
	}
}

func TestAggregate_ZeroCreditPartitionIsNaN(t *testing.T) {
	rows := []testRow{
		{"Art", 85, 2, 3.5, "任选"},
		{"Math", 90, 0, 4.0, "必修"},
	}

	sm, err := Aggregate(toRecords(rows))
	if err != nil {
		t.Fatalf("学分和为 0 不应报错: %v", err)
	}
	assertClose(t, "average_score", sm.AverageScore, 85)
	if !math.IsNaN(sm.RequiredAverageScore) || !math.IsNaN(sm.RequiredAverageGradePoint) {
		t.Errorf("必修分区学分和为 0，期望 NaN，实际 %v/%v", sm.RequiredAverageScore, sm.RequiredAverageGradePoint)
	}
	if !math.IsNaN(sm.RequiredScoreOutOf80) {
		t.Errorf("折算分应传递 NaN，实际 %v", sm.RequiredScoreOutOf80)
	}
}

func TestAggregate_EmptyTable(t *testing.T) {
	sm, err := Aggregate(nil)
	if err != nil {
		t.Fatalf("空表不应报错: %v", err)
	}
	for name, v := range map[string]float64{
		"average_score":       sm.AverageScore,
		"average_grade_point": sm.AverageGradePoint,
		"required_score":      sm.RequiredAverageScore,
		"required_gp":         sm.RequiredAverageGradePoint,
		"out_of_80":           sm.RequiredScoreOutOf80,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s: 期望 NaN，实际 %v", name, v)
		}
	}
	if len(sm.CategoryMeans) != 0 {
		t.Errorf("空表不应有分组，实际 %v", sm.CategoryMeans)
	}
}

func TestAggregate_InvalidScore(t *testing.T) {
	rows := append(scenarioRows(), testRow{"Physics", "缺考", 2, 0, "必修"})

	_, err := Aggregate(toRecords(rows))
	if !errors.Is(err, apperrors.ErrData) {
		t.Fatalf("期望 ErrData，实际: %v", err)
	}
	var scoreErr *ScoreError
	if !errors.As(err, &scoreErr) {
		t.Fatalf("期望 *ScoreError，实际 %T", err)
	}
	if scoreErr.Row != 3 || scoreErr.CourseName != "Physics" || scoreErr.Value != "缺考" {
		t.Errorf("错误信息未指明出错行: %+v", scoreErr)
	}
}

func TestAggregate_NonFiniteScore(t *testing.T) {
	for _, text := range []string{"NaN", "Inf", "-infinity"} {
		rows := []testRow{
			{"Math", 90, 3, 4.0, "必修"},
			{"Bad", text, 2, 3.0, "任选"},
		}

		_, err := Aggregate(toRecords(rows))
		var scoreErr *ScoreError
		if !errors.As(err, &scoreErr) {
			t.Fatalf("成绩 %q 应报 *ScoreError，实际: %v", text, err)
		}
		if scoreErr.Row != 1 || scoreErr.Value != text {
			t.Errorf("错误信息未指明出错行: %+v", scoreErr)
		}
	}
}

func TestAggregate_InvalidScoreWithZeroCreditIgnored(t *testing.T) {
	rows := append(scenarioRows(), testRow{"Physics", "缺考", 0, 0, "必修"})

	if _, err := Aggregate(toRecords(rows)); err != nil {
		t.Errorf("学分为 0 的行应先被剔除，不应报错: %v", err)
	}
}

func TestAggregate_Pure(t *testing.T) {
	recs := toRecords(append(scenarioRows(), testRow{"Lab", "免修", 1, 5.0, "必修"}))
	before := make([]model.CourseRecord, len(recs))
	copy(before, recs)

	first, err := Aggregate(recs)
	if err != nil {
		t.Fatalf("Aggregate 应成功: %v", err)
	}
	second, _ := Aggregate(recs)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("两次计算结果不一致: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(recs, before) {
		t.Error("Aggregate 不应修改输入记录")
	}
	if recs[3].Score.Kind != model.ScoreExempt {
		t.Error("免修成绩不应被改写为数值")
	}
}

func TestAggregate_CategoryMeans(t *testing.T) {
	rows := []testRow{
		{"Math", 90, 3, 4.0, "必修"},
		{"Physics", 80, 1, 3.0, "必修"},
		{"Art", 70, 2, 2.0, "任选"},
		{"PE", 60, 0, 1.0, "任选"},
	}

	sm, err := Aggregate(toRecords(rows))
	if err != nil {
		t.Fatalf("Aggregate 应成功: %v", err)
	}
	if len(sm.CategoryMeans) != 2 {
		t.Fatalf("期望 2 个分组，实际 %d", len(sm.CategoryMeans))
	}

	elective, required := sm.CategoryMeans[0], sm.CategoryMeans[1]
	if elective.Category != model.CategoryElective || required.Category != model.CategoryRequired {
		t.Errorf("分组顺序不符: %+v", sm.CategoryMeans)
	}
	// 简单平均，不按学分加权；学分为 0 的行不参与
	assertClose(t, "必修平均", required.MeanScore, 85)
	assertClose(t, "任选平均", elective.MeanScore, 70)
	if elective.Count != 1 || required.Count != 2 {
		t.Errorf("分组门数不符: %+v", sm.CategoryMeans)
	}
}
