package service

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gradebook/backend/config"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
)

// ── 测试辅助 ──

type testRow struct {
	name     string
	score    interface{}
	credit   float64
	gp       float64
	category string
}

// scenarioRows 高等数学/美术/体育（体育学分为 0）
func scenarioRows() []testRow {
	return []testRow{
		{"Math", 90, 3, 4.0, "必修"},
		{"Art", 85, 2, 3.5, "任选"},
		{"PE", 0, 0, 0, "任选"},
	}
}

func toRecords(rows []testRow) []model.CourseRecord {
	recs := make([]model.CourseRecord, 0, len(rows))
	for _, r := range rows {
		var score model.Score
		switch v := r.score.(type) {
		case string:
			score = model.ParseScore(v)
		case int:
			score = model.NumericScore(float64(v))
		case float64:
			score = model.NumericScore(v)
		}
		recs = append(recs, model.CourseRecord{
			CourseName: r.name,
			Score:      score,
			Credit:     r.credit,
			GradePoint: r.gp,
			Category:   model.Category(r.category),
		})
	}
	return recs
}

// buildWorkbookBytes 生成带 3 行说明的 xlsx 内容
func buildWorkbookBytes(t *testing.T, rows []testRow) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "学生成绩单")
	f.SetCellValue(sheet, "A2", "学号: 2021001")
	f.SetCellValue(sheet, "A3", "打印日期: 2024-07-01")
	header := []interface{}{"课程名称", "成绩", "学分", "绩点", "课程属性"}
	if err := f.SetSheetRow(sheet, "A4", &header); err != nil {
		t.Fatalf("写入表头失败: %v", err)
	}
	for i, r := range rows {
		values := []interface{}{r.name, r.score, r.credit, r.gp, r.category}
		cellName, _ := excelize.CoordinatesToCellName(1, i+5)
		if err := f.SetSheetRow(sheet, cellName, &values); err != nil {
			t.Fatalf("写入数据失败: %v", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成测试文件失败: %v", err)
	}
	return buf.Bytes()
}

func newTestRepo() *repository.Repository {
	return repository.NewRepository(&config.StorageConfig{HeaderRows: 3, MaxRows: 100})
}

func setupTestWorkbookService(t *testing.T) (WorkbookService, *repository.Repository, string) {
	t.Helper()
	repo := newTestRepo()
	dir := t.TempDir()
	return NewWorkbookService(repo, dir, zap.NewNop()), repo, dir
}

func float(v float64) *float64 { return &v }

func scorePtr(s model.Score) *model.Score { return &s }
