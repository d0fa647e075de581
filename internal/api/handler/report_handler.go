package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/service"
	"gradebook/backend/pkg/response"
)

// ReportHandler 汇总与报告导出 HTTP 处理器
type ReportHandler struct {
	summarySvc service.SummaryService
	exportSvc  service.ExportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(summarySvc service.SummaryService, exportSvc service.ExportService) *ReportHandler {
	return &ReportHandler{summarySvc: summarySvc, exportSvc: exportSvc}
}

// Summary 计算加权平均分、绩点及分组平均分
// GET /api/v1/workbooks/:id/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	resp, err := h.summarySvc.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleWorkbookError(c, err)
		return
	}
	response.OK(c, resp)
}

// ExportReport 导出含柱状图的成绩报告
// GET /api/v1/workbooks/:id/report
func (h *ReportHandler) ExportReport(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrExportGenerateFail) {
			response.InternalError(c)
			return
		}
		handleWorkbookError(c, err)
		return
	}
	response.XLSX(c, filename, buf.Bytes())
}
