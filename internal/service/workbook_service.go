package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
	apperrors "gradebook/backend/pkg/errors"
)

// ── 成绩表模块业务错误 ──

var (
	ErrWorkbookNotFound = errors.New("成绩表不存在或会话已结束")
)

// WorkbookService 成绩表加载与编辑接口
//
// 设计说明：
//   - 每次编辑都在记录表副本上进行，写回文件成功后才替换内存中的表
//   - 任何失败都不会改动内存中的表或磁盘文件
//   - 单用户工具，编辑操作串行执行
type WorkbookService interface {
	// Upload 解析上传内容并另存一份副本，后续编辑写回该副本
	Upload(ctx context.Context, r io.Reader, filename string) (*dto.WorkbookResponse, error)
	// Open 直接打开磁盘上的成绩表，后续编辑写回原文件
	Open(ctx context.Context, path string) (*dto.WorkbookResponse, error)
	ListRecords(ctx context.Context, id string) (*dto.WorkbookResponse, error)
	GetRecord(ctx context.Context, id string, row int) (*dto.CourseRecordResponse, error)
	UpdateRecord(ctx context.Context, id string, row int, req *dto.CourseRecordRequest) (*dto.CourseRecordResponse, error)
	AppendRecords(ctx context.Context, id string, req *dto.AppendRecordsRequest) (*dto.WorkbookResponse, error)
	// Download 返回当前写回的文件内容与建议文件名
	Download(ctx context.Context, id string) (*bytes.Buffer, string, error)
	// Close 结束会话，删除服务端创建的副本
	Close(ctx context.Context, id string) error
}

type workbookService struct {
	repo      *repository.Repository
	uploadDir string
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewWorkbookService 创建 WorkbookService 实例
func NewWorkbookService(repo *repository.Repository, uploadDir string, logger *zap.Logger) WorkbookService {
	return &workbookService{repo: repo, uploadDir: uploadDir, logger: logger}
}

// ────────────────────── Upload ──────────────────────

func (s *workbookService) Upload(ctx context.Context, r io.Reader, filename string) (*dto.WorkbookResponse, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取上传内容失败: %v", apperrors.ErrParse, err)
	}

	table, err := s.repo.Workbook.Load(ctx, bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.logger.Error("创建上传目录失败", zap.String("dir", s.uploadDir), zap.Error(err))
		return nil, err
	}

	id := uuid.New().String()
	path := filepath.Join(s.uploadDir, id+".xlsx")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		s.logger.Error("保存上传文件失败", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	if filename == "" {
		filename = id + ".xlsx"
	}
	wb := s.newWorkbook(id, filename, path, table)
	wb.Temporary = true
	if err := s.repo.Session.Create(ctx, wb); err != nil {
		os.Remove(path)
		return nil, err
	}

	s.logger.Info("成绩表已上传",
		zap.String("workbook_id", id),
		zap.String("file_name", filename),
		zap.Int("rows", table.Len()),
	)
	return toWorkbookResponse(wb), nil
}

// ────────────────────── Open ──────────────────────

func (s *workbookService) Open(ctx context.Context, path string) (*dto.WorkbookResponse, error) {
	table, err := s.repo.Workbook.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	wb := s.newWorkbook(uuid.New().String(), filepath.Base(path), path, table)
	if err := s.repo.Session.Create(ctx, wb); err != nil {
		return nil, err
	}

	s.logger.Info("成绩表已打开", zap.String("workbook_id", wb.ID), zap.String("path", path))
	return toWorkbookResponse(wb), nil
}

// ────────────────────── ListRecords / GetRecord ──────────────────────

func (s *workbookService) ListRecords(ctx context.Context, id string) (*dto.WorkbookResponse, error) {
	wb, err := s.getWorkbook(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWorkbookResponse(wb), nil
}

func (s *workbookService) GetRecord(ctx context.Context, id string, row int) (*dto.CourseRecordResponse, error) {
	wb, err := s.getWorkbook(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := wb.Table.Row(row)
	if err != nil {
		return nil, err
	}
	resp := toRecordResponse(row, rec)
	return &resp, nil
}

// ────────────────────── UpdateRecord ──────────────────────

func (s *workbookService) UpdateRecord(ctx context.Context, id string, row int, req *dto.CourseRecordRequest) (*dto.CourseRecordResponse, error) {
	rec, err := toCourseRecord(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.getWorkbook(ctx, id)
	if err != nil {
		return nil, err
	}

	table := wb.Table.Clone()
	if err := table.UpdateRow(row, rec); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, wb, table); err != nil {
		return nil, err
	}

	s.logger.Info("成绩行已更新", zap.String("workbook_id", id), zap.Int("row", row))
	updated, _ := table.Row(row)
	resp := toRecordResponse(row, updated)
	return &resp, nil
}

// ────────────────────── AppendRecords ──────────────────────

func (s *workbookService) AppendRecords(ctx context.Context, id string, req *dto.AppendRecordsRequest) (*dto.WorkbookResponse, error) {
	recs := make([]model.CourseRecord, 0, len(req.Records))
	for i := range req.Records {
		rec, err := toCourseRecord(&req.Records[i])
		if err != nil {
			return nil, fmt.Errorf("第 %d 条: %w", i+1, err)
		}
		recs = append(recs, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.getWorkbook(ctx, id)
	if err != nil {
		return nil, err
	}

	table := wb.Table.Clone()
	table.AppendRows(recs...)
	if err := s.commit(ctx, wb, table); err != nil {
		return nil, err
	}

	s.logger.Info("成绩已追加", zap.String("workbook_id", id), zap.Int("count", len(recs)))
	return s.ListRecords(ctx, id)
}

// ────────────────────── Download / Close ──────────────────────

func (s *workbookService) Download(ctx context.Context, id string) (*bytes.Buffer, string, error) {
	wb, err := s.getWorkbook(ctx, id)
	if err != nil {
		return nil, "", err
	}
	content, err := os.ReadFile(wb.Path)
	if err != nil {
		s.logger.Error("读取成绩表文件失败", zap.String("path", wb.Path), zap.Error(err))
		return nil, "", err
	}
	return bytes.NewBuffer(content), wb.FileName, nil
}

func (s *workbookService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.getWorkbook(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Session.Delete(ctx, id); err != nil {
		return err
	}
	if wb.Temporary {
		if err := os.Remove(wb.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("删除上传副本失败", zap.String("path", wb.Path), zap.Error(err))
		}
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *workbookService) newWorkbook(id, filename, path string, table *model.RecordTable) *model.Workbook {
	now := time.Now()
	return &model.Workbook{
		ID:        id,
		FileName:  filename,
		Path:      path,
		Table:     table,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *workbookService) getWorkbook(ctx context.Context, id string) (*model.Workbook, error) {
	wb, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrWorkbookNotFound
		}
		s.logger.Error("查询成绩表会话失败", zap.String("workbook_id", id), zap.Error(err))
		return nil, err
	}
	return wb, nil
}

// commit 全量写回文件，成功后以新表替换会话中的表
func (s *workbookService) commit(ctx context.Context, wb *model.Workbook, table *model.RecordTable) error {
	if err := s.repo.Workbook.Persist(ctx, table, wb.Path); err != nil {
		s.logger.Error("写回成绩表失败", zap.String("workbook_id", wb.ID), zap.String("path", wb.Path), zap.Error(err))
		return err
	}

	next := *wb
	next.Table = table
	next.UpdatedAt = time.Now()
	return s.repo.Session.Update(ctx, &next)
}

// toCourseRecord 将请求转换为记录，并复核取值范围
func toCourseRecord(req *dto.CourseRecordRequest) (model.CourseRecord, error) {
	if req.Score == nil || req.Credit == nil || req.GradePoint == nil {
		return model.CourseRecord{}, fmt.Errorf("%w: 成绩、学分、绩点均不能为空", apperrors.ErrValidation)
	}

	rec := model.CourseRecord{
		CourseName: req.CourseName,
		Score:      *req.Score,
		Credit:     *req.Credit,
		GradePoint: *req.GradePoint,
		Category:   model.Category(req.Category),
	}

	switch rec.Score.Kind {
	case model.ScoreNumeric:
		if !inRange(rec.Score.Value, 0, 100) {
			return rec, fmt.Errorf("%w: 成绩须在 0-100 之间", apperrors.ErrValidation)
		}
	case model.ScorePass, model.ScoreExempt:
	default:
		return rec, fmt.Errorf("%w: 成绩须为数字或“通过/免修”，实际 %q", apperrors.ErrValidation, rec.Score.Text)
	}
	if math.IsNaN(rec.Credit) || math.IsInf(rec.Credit, 0) || rec.Credit < 0 {
		return rec, fmt.Errorf("%w: 学分不能为负数", apperrors.ErrValidation)
	}
	if !inRange(rec.GradePoint, 0, 5) {
		return rec, fmt.Errorf("%w: 绩点须在 0-5 之间", apperrors.ErrValidation)
	}
	if !rec.Category.Valid() {
		return rec, fmt.Errorf("%w: 课程属性须为“%s”或“%s”", apperrors.ErrValidation, model.CategoryRequired, model.CategoryElective)
	}
	return rec, nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func toRecordResponse(row int, rec model.CourseRecord) dto.CourseRecordResponse {
	return dto.CourseRecordResponse{
		Row:        row,
		CourseName: rec.CourseName,
		Score:      rec.Score,
		Credit:     rec.Credit,
		GradePoint: rec.GradePoint,
		Category:   string(rec.Category),
		Extra:      rec.Extra,
	}
}

func toWorkbookResponse(wb *model.Workbook) *dto.WorkbookResponse {
	records := make([]dto.CourseRecordResponse, 0, wb.Table.Len())
	for i, rec := range wb.Table.Records {
		records = append(records, toRecordResponse(i, rec))
	}
	return &dto.WorkbookResponse{
		ID:        wb.ID,
		FileName:  wb.FileName,
		SheetName: wb.Table.SheetName,
		Columns:   wb.Table.Columns,
		Total:     wb.Table.Len(),
		Records:   records,
		UpdatedAt: wb.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
