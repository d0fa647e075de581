package dto

import "gradebook/backend/internal/model"

// ── 成绩表模块 DTO ──

// CourseRecordRequest 编辑或追加的一行成绩
type CourseRecordRequest struct {
	CourseName string       `json:"course_name"`
	Score      *model.Score `json:"score"           binding:"required"` // 数字，或 "通过" / "免修"
	Credit     *float64     `json:"credit"          binding:"required"`
	GradePoint *float64     `json:"grade_point"     binding:"required"`
	Category   string       `json:"course_category" binding:"required"`
}

// AppendRecordsRequest 批量追加请求，records 可为空
type AppendRecordsRequest struct {
	Records []CourseRecordRequest `json:"records" binding:"dive"`
}

// CourseRecordResponse 单行成绩
type CourseRecordResponse struct {
	Row        int               `json:"row"`
	CourseName string            `json:"course_name"`
	Score      model.Score       `json:"score"`
	Credit     float64           `json:"credit"`
	GradePoint float64           `json:"grade_point"`
	Category   string            `json:"course_category"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// WorkbookResponse 成绩表会话及全部记录
type WorkbookResponse struct {
	ID        string                 `json:"id"`
	FileName  string                 `json:"file_name"`
	SheetName string                 `json:"sheet_name"`
	Columns   []string               `json:"columns"`
	Total     int                    `json:"total"`
	Records   []CourseRecordResponse `json:"records"`
	UpdatedAt string                 `json:"updated_at"`
}
