package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	apperrors "gradebook/backend/pkg/errors"
)

func TestSummaryService_Summarize_Success(t *testing.T) {
	wbSvc, repo, _ := setupTestWorkbookService(t)
	resp := uploadScenario(t, wbSvc)
	svc := NewSummaryService(repo, zap.NewNop())

	sm, err := svc.Summarize(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("Summarize 应成功: %v", err)
	}
	if sm.AverageScore.Value == nil || *sm.AverageScore.Value != 88 {
		t.Errorf("期望 average_score=88，实际 %+v", sm.AverageScore)
	}
	if sm.AverageScore.Display != "88.00" {
		t.Errorf("期望显示 88.00，实际 %s", sm.AverageScore.Display)
	}
	if sm.RequiredScoreOutOf80.Display != "72.00" {
		t.Errorf("期望显示 72.00，实际 %s", sm.RequiredScoreOutOf80.Display)
	}
	if sm.AverageGradePoint.Display != "3.80" {
		t.Errorf("期望显示 3.80，实际 %s", sm.AverageGradePoint.Display)
	}
	if len(sm.CategoryMeans) != 2 {
		t.Errorf("期望 2 个分组，实际 %d", len(sm.CategoryMeans))
	}
}

func TestSummaryService_Summarize_NotAvailable(t *testing.T) {
	wbSvc, repo, _ := setupTestWorkbookService(t)
	rows := []testRow{{"Art", 85, 2, 3.5, "任选"}}
	resp, err := wbSvc.Upload(context.Background(), bytes.NewReader(buildWorkbookBytes(t, rows)), "elective.xlsx")
	if err != nil {
		t.Fatalf("Upload 应成功: %v", err)
	}
	svc := NewSummaryService(repo, zap.NewNop())

	sm, err := svc.Summarize(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("无必修课时不应报错: %v", err)
	}
	if sm.RequiredAverageScore.Value != nil || sm.RequiredAverageScore.Display != "N/A" {
		t.Errorf("期望必修平均分为 N/A，实际 %+v", sm.RequiredAverageScore)
	}
	if sm.RequiredScoreOutOf80.Display != "N/A" {
		t.Errorf("期望折算分为 N/A，实际 %+v", sm.RequiredScoreOutOf80)
	}
	if sm.AverageScore.Display != "85.00" {
		t.Errorf("整体平均分不应受影响，实际 %+v", sm.AverageScore)
	}
}

func TestSummaryService_Summarize_DataError(t *testing.T) {
	wbSvc, repo, _ := setupTestWorkbookService(t)
	rows := append(scenarioRows(), testRow{"Physics", "缺考", 2, 0, "必修"})
	resp, err := wbSvc.Upload(context.Background(), bytes.NewReader(buildWorkbookBytes(t, rows)), "bad.xlsx")
	if err != nil {
		t.Fatalf("无效成绩不应阻止加载: %v", err)
	}
	svc := NewSummaryService(repo, zap.NewNop())

	_, err = svc.Summarize(context.Background(), resp.ID)
	if !errors.Is(err, apperrors.ErrData) {
		t.Errorf("期望 ErrData，实际: %v", err)
	}
}

func TestSummaryService_Summarize_NotFound(t *testing.T) {
	svc := NewSummaryService(newTestRepo(), zap.NewNop())
	if _, err := svc.Summarize(context.Background(), "missing"); !errors.Is(err, ErrWorkbookNotFound) {
		t.Errorf("期望 ErrWorkbookNotFound，实际: %v", err)
	}
}

func TestFormatMetric(t *testing.T) {
	if got := FormatMetric(88.456); got != "88.46" {
		t.Errorf("期望 88.46，实际 %s", got)
	}
}
