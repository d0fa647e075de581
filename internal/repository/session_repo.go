package repository

import (
	"context"
	"errors"
	"sync"

	"gradebook/backend/internal/model"
)

// ErrRecordNotFound 会话不存在
var ErrRecordNotFound = errors.New("record not found")

// SessionRepository 已上传成绩表的会话存储（仅内存，进程退出即丢弃）
type SessionRepository interface {
	Create(ctx context.Context, wb *model.Workbook) error
	GetByID(ctx context.Context, id string) (*model.Workbook, error)
	Update(ctx context.Context, wb *model.Workbook) error
	Delete(ctx context.Context, id string) error
}

type sessionRepo struct {
	mu        sync.RWMutex
	workbooks map[string]*model.Workbook
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo() SessionRepository {
	return &sessionRepo{workbooks: make(map[string]*model.Workbook)}
}

func (r *sessionRepo) Create(_ context.Context, wb *model.Workbook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workbooks[wb.ID] = wb
	return nil
}

func (r *sessionRepo) GetByID(_ context.Context, id string) (*model.Workbook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wb, ok := r.workbooks[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return wb, nil
}

func (r *sessionRepo) Update(_ context.Context, wb *model.Workbook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workbooks[wb.ID]; !ok {
		return ErrRecordNotFound
	}
	r.workbooks[wb.ID] = wb
	return nil
}

func (r *sessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workbooks[id]; !ok {
		return ErrRecordNotFound
	}
	delete(r.workbooks, id)
	return nil
}
