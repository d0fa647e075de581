package service

import (
	"go.uber.org/zap"

	"gradebook/backend/config"
	"gradebook/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Workbook WorkbookService
	Summary  SummaryService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) *Service {
	return &Service{
		Workbook: NewWorkbookService(repo, cfg.Storage.UploadDir, logger),
		Summary:  NewSummaryService(repo, logger),
		Export:   NewExportService(repo, logger),
	}
}
