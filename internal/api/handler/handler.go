package handler

import "gradebook/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Workbook *WorkbookHandler
	Report   *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Workbook: NewWorkbookHandler(svc.Workbook),
		Report:   NewReportHandler(svc.Summary, svc.Export),
	}
}
