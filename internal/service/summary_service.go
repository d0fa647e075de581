package service

import (
	"context"
	"errors"
	"math"
	"strconv"

	"go.uber.org/zap"

	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
)

// notAvailable 无法计算的平均值显示文本
const notAvailable = "N/A"

// SummaryService 成绩汇总接口
type SummaryService interface {
	// Summarize 基于会话当前的记录表重新计算汇总，不做缓存
	Summarize(ctx context.Context, id string) (*dto.SummaryResponse, error)
}

type summaryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSummaryService 创建 SummaryService 实例
func NewSummaryService(repo *repository.Repository, logger *zap.Logger) SummaryService {
	return &summaryService{repo: repo, logger: logger}
}

func (s *summaryService) Summarize(ctx context.Context, id string) (*dto.SummaryResponse, error) {
	wb, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrWorkbookNotFound
		}
		return nil, err
	}

	summary, err := Aggregate(wb.Table.Records)
	if err != nil {
		var scoreErr *ScoreError
		if errors.As(err, &scoreErr) {
			s.logger.Warn("成绩数据无效，无法汇总",
				zap.String("workbook_id", id),
				zap.Int("row", scoreErr.Row),
				zap.String("value", scoreErr.Value),
			)
		}
		return nil, err
	}

	return toSummaryResponse(summary), nil
}

func toSummaryResponse(sm *model.Summary) *dto.SummaryResponse {
	means := make([]dto.CategoryMeanResponse, 0, len(sm.CategoryMeans))
	for _, m := range sm.CategoryMeans {
		means = append(means, dto.CategoryMeanResponse{
			Category:  string(m.Category),
			MeanScore: toMetric(m.MeanScore),
			Count:     m.Count,
		})
	}

	return &dto.SummaryResponse{
		AverageScore:              toMetric(sm.AverageScore),
		AverageGradePoint:         toMetric(sm.AverageGradePoint),
		RequiredAverageScore:      toMetric(sm.RequiredAverageScore),
		RequiredAverageGradePoint: toMetric(sm.RequiredAverageGradePoint),
		RequiredScoreOutOf80:      toMetric(sm.RequiredScoreOutOf80),
		TotalCredits:              sm.TotalCredits,
		RequiredCredits:           sm.RequiredCredits,
		CountedRows:               sm.CountedRows,
		ExcludedRows:              sm.ExcludedRows,
		CategoryMeans:             means,
	}
}

// toMetric NaN 输出为 null + "N/A"，其余保留两位小数显示
func toMetric(v float64) dto.Metric {
	return dto.Metric{Value: metricValue(v), Display: FormatMetric(v)}
}

func metricValue(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FormatMetric 按两位小数格式化，NaN 显示为 "N/A"
func FormatMetric(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
