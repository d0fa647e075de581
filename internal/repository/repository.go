package repository

import "gradebook/backend/config"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Workbook WorkbookStore
	Session  SessionRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(cfg *config.StorageConfig) *Repository {
	return &Repository{
		Workbook: NewWorkbookStore(cfg.HeaderRows, cfg.MaxRows),
		Session:  NewSessionRepo(),
	}
}
