package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/service"
	apperrors "gradebook/backend/pkg/errors"
	"gradebook/backend/pkg/response"
)

// WorkbookHandler 成绩表模块 HTTP 处理器
type WorkbookHandler struct {
	workbookSvc service.WorkbookService
}

// NewWorkbookHandler 创建 WorkbookHandler
func NewWorkbookHandler(workbookSvc service.WorkbookService) *WorkbookHandler {
	return &WorkbookHandler{workbookSvc: workbookSvc}
}

// Upload 上传成绩表
// POST /api/v1/workbooks  multipart/form-data, field="file"
func (h *WorkbookHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "上传文件过大")
			return
		}
		response.BadRequest(c, 10001, "请上传成绩表文件（xlsx）")
		return
	}
	defer file.Close()

	resp, err := h.workbookSvc.Upload(c.Request.Context(), file, header.Filename)
	if err != nil {
		handleWorkbookError(c, err)
		return
	}
	response.Created(c, resp)
}

// ListRecords 获取全部成绩行
// GET /api/v1/workbooks/:id/records
func (h *WorkbookHandler) ListRecords(c *gin.Context) {
	resp, err := h.workbookSvc.ListRecords(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleWorkbookError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetRecord 加载单行数据用于编辑
// GET /api/v1/workbooks/:id/records/:row
func (h *WorkbookHandler) GetRecord(c *gin.Context) {
	row, ok := parseRow(c)
	if !ok {
		return
	}

	resp, err := h.workbookSvc.GetRecord(c.Request.Context(), c.Param("id"), row)
	if err != nil {
		handleWorkbookError(c, err)
		return
	}
	response.OK(c, resp)
}

// UpdateRecord 保存单行修改
// PUT /api/v1/workbooks/:id/records/:row
func (h *WorkbookHandler) UpdateRecord(c *gin.Context) {
	row, ok := parseRow(c)
	if !ok {
		return
	}

	var req dto.CourseRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	resp, err := h.workbookSvc.UpdateRecord(c.Request.Context(), c.Param("id"), row, &req)
	if err != nil {
		handleWorkbookError(c, err)
		return
	}
	response.OK(c, resp)
}

// AppendRecords 批量追加成绩
// POST /api/v1/workbooks/:id/records
func (h *WorkbookHandler) AppendRecords(c *gin.Context) {
	var req dto.AppendRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	resp, err := h.workbookSvc.AppendRecords(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleWorkbookError(c, err)
		return
	}
	response.Created(c, resp)
}

// Download 下载当前写回的成绩表
// GET /api/v1/workbooks/:id/file
func (h *WorkbookHandler) Download(c *gin.Context) {
	buf, filename, err := h.workbookSvc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleWorkbookError(c, err)
		return
	}
	response.XLSX(c, filename, buf.Bytes())
}

// Close 结束会话
// DELETE /api/v1/workbooks/:id
func (h *WorkbookHandler) Close(c *gin.Context) {
	if err := h.workbookSvc.Close(c.Request.Context(), c.Param("id")); err != nil {
		handleWorkbookError(c, err)
		return
	}
	response.OK(c, nil)
}

// parseRow 解析路径中的行号（从 0 开始）
func parseRow(c *gin.Context) (int, bool) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		response.BadRequest(c, 10001, "行号必须为整数")
		return 0, false
	}
	return row, true
}

// handleWorkbookError 统一成绩表模块错误映射
func handleWorkbookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkbookNotFound):
		response.NotFound(c, 20002, "成绩表不存在或会话已结束")
	case errors.Is(err, apperrors.ErrParse):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "成绩表解析失败", err.Error())
	case errors.Is(err, apperrors.ErrIndex):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20003, "行号超出范围", err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20004, "字段校验失败", err.Error())
	case errors.Is(err, apperrors.ErrData):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 20005, "成绩数据无效", err.Error())
	default:
		response.InternalError(c)
	}
}
