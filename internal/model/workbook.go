package model

import "time"

// Workbook 一次上传会话：内存中的记录表及其回写文件路径
type Workbook struct {
	ID       string
	FileName string
	Path     string
	Table    *RecordTable

	// Temporary 为 true 时文件由服务端创建，会话结束后删除
	Temporary bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
