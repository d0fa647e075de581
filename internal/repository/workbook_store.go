package repository

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gradebook/backend/internal/model"
	apperrors "gradebook/backend/pkg/errors"
)

const defaultSheetName = "Sheet1"

// WorkbookStore 成绩表文件读写
//
// 文件约定：
//   - 第一个工作表为成绩表
//   - 前 headerRows 行为说明信息，加载时跳过、写回时保留
//   - 紧随其后一行为表头，五个固定列按列名匹配，列序不限
type WorkbookStore interface {
	// Load 解析上传的 xlsx 内容
	Load(ctx context.Context, r io.Reader) (*model.RecordTable, error)
	// LoadFile 从磁盘路径加载
	LoadFile(ctx context.Context, path string) (*model.RecordTable, error)
	// Persist 将整张表全量覆盖写入 path
	Persist(ctx context.Context, table *model.RecordTable, path string) error
}

type workbookStore struct {
	headerRows int
	maxRows    int
}

// NewWorkbookStore 创建 WorkbookStore 实例
func NewWorkbookStore(headerRows, maxRows int) WorkbookStore {
	return &workbookStore{headerRows: headerRows, maxRows: maxRows}
}

// ────────────────────── Load ──────────────────────

func (s *workbookStore) Load(_ context.Context, r io.Reader) (*model.RecordTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: 无法解析Excel文件: %v", apperrors.ErrParse, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: 文件中没有工作表", apperrors.ErrParse)
	}
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: 读取工作表失败: %v", apperrors.ErrParse, err)
	}

	if len(rows) <= s.headerRows {
		return nil, fmt.Errorf("%w: 第 %d 行应为表头，文件行数不足", apperrors.ErrParse, s.headerRows+1)
	}

	table := &model.RecordTable{SheetName: sheetName}
	for _, row := range rows[:s.headerRows] {
		table.Preamble = append(table.Preamble, append([]string(nil), row...))
	}

	columns := headerColumns(rows[s.headerRows], rows[s.headerRows+1:])
	keys := model.ColumnKeys(columns)
	colIndex := make(map[string]int, len(keys))
	for i, k := range keys {
		colIndex[k] = i
	}
	var missing []string
	for _, name := range model.RequiredColumns {
		if _, ok := colIndex[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: 表头缺少必要列 %s", apperrors.ErrParse, strings.Join(missing, "/"))
	}
	table.Columns = columns

	for i := s.headerRows + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rec, err := parseRecord(row, keys, colIndex, i+1)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, rec)
	}

	if s.maxRows > 0 && len(table.Records) > s.maxRows {
		return nil, fmt.Errorf("%w: 数据行数超过上限 %d 行", apperrors.ErrParse, s.maxRows)
	}

	return table, nil
}

func (s *workbookStore) LoadFile(ctx context.Context, path string) (*model.RecordTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开文件失败: %v", apperrors.ErrParse, err)
	}
	defer file.Close()
	return s.Load(ctx, file)
}

// headerColumns 按位置保留全部表头文本；数据行比表头宽时补空表头，避免写回时丢列
func headerColumns(header []string, data [][]string) []string {
	width := len(header)
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}
	columns := make([]string, width)
	for i := 0; i < len(header); i++ {
		columns[i] = strings.TrimSpace(header[i])
	}
	return columns
}

func parseRecord(row []string, keys []string, colIndex map[string]int, excelRow int) (model.CourseRecord, error) {
	get := func(name string) string {
		if i := colIndex[name]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rec := model.CourseRecord{
		CourseName: get(model.ColumnCourseName),
		Score:      model.ParseScore(get(model.ColumnScore)),
		Category:   model.Category(get(model.ColumnCategory)),
	}

	var err error
	if rec.Credit, err = parseNumber(get(model.ColumnCredit)); err != nil {
		return rec, fmt.Errorf("%w: 第 %d 行%s %q 不是数字", apperrors.ErrParse, excelRow, model.ColumnCredit, get(model.ColumnCredit))
	}
	if rec.GradePoint, err = parseNumber(get(model.ColumnGradePoint)); err != nil {
		return rec, fmt.Errorf("%w: 第 %d 行%s %q 不是数字", apperrors.ErrParse, excelRow, model.ColumnGradePoint, get(model.ColumnGradePoint))
	}

	for i, key := range keys {
		if isRequiredColumn(key) || i >= len(row) || row[i] == "" {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[key] = row[i]
	}

	return rec, nil
}

// parseNumber 空单元格按 0 处理；NaN、Inf 视为非数字
func parseNumber(text string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("非有限数值 %q", text)
	}
	return v, nil
}

func isRequiredColumn(name string) bool {
	for _, c := range model.RequiredColumns {
		if c == name {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ────────────────────── Persist ──────────────────────

func (s *workbookStore) Persist(_ context.Context, table *model.RecordTable, path string) error {
	f, err := s.build(table)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("写入成绩表失败: %w", err)
	}
	return nil
}

func (s *workbookStore) build(table *model.RecordTable) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := table.SheetName
	if sheet == "" {
		sheet = defaultSheetName
	}
	if sheet != defaultSheetName {
		if err := f.SetSheetName(defaultSheetName, sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("设置工作表名失败: %w", err)
		}
	}

	columns := table.Columns
	if len(columns) == 0 {
		columns = model.RequiredColumns
	}

	// 说明行不足时补空行，保证写回的文件仍按同一约定加载
	row := 1
	for i := 0; i < s.headerRows; i++ {
		if i < len(table.Preamble) && len(table.Preamble[i]) > 0 {
			values := make([]interface{}, len(table.Preamble[i]))
			for j, v := range table.Preamble[i] {
				values[j] = v
			}
			if err := setRow(f, sheet, row, values); err != nil {
				f.Close()
				return nil, err
			}
		}
		row++
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, sheet, row, header); err != nil {
		f.Close()
		return nil, err
	}
	row++

	keys := model.ColumnKeys(columns)
	for _, rec := range table.Records {
		values := make([]interface{}, len(keys))
		for i, k := range keys {
			values[i] = cellValue(rec, k)
		}
		if err := setRow(f, sheet, row, values); err != nil {
			f.Close()
			return nil, err
		}
		row++
	}

	return f, nil
}

func cellValue(rec model.CourseRecord, key string) interface{} {
	switch key {
	case model.ColumnCourseName:
		return rec.CourseName
	case model.ColumnScore:
		return rec.Score.CellValue()
	case model.ColumnCredit:
		return rec.Credit
	case model.ColumnGradePoint:
		return rec.GradePoint
	case model.ColumnCategory:
		return string(rec.Category)
	default:
		return rec.Extra[key]
	}
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("写入第 %d 行失败: %w", row, err)
	}
	return nil
}
