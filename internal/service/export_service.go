package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 成绩报告导出接口
//
// 设计说明：
//   - 报告为新生成的 xlsx，不影响会话对应的成绩表文件
//   - Sheet "成绩明细"：全部记录，附每行是否计入汇总
//   - Sheet "汇总"：五项加权指标 + 按课程属性分组的平均分及柱状图
type ExportService interface {
	ExportReport(ctx context.Context, id string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

const (
	detailSheet  = "成绩明细"
	summarySheet = "汇总"
)

// ═══════════════════════════════════════════════════════════
// ExportReport — 导出成绩报告
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReport(ctx context.Context, id string) (*bytes.Buffer, string, error) {
	wb, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, "", ErrWorkbookNotFound
		}
		return nil, "", err
	}

	summary, err := Aggregate(wb.Table.Records)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", detailSheet); err != nil {
		s.logger.Error("初始化工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		s.logger.Error("初始化工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	s.writeDetail(f, wb.Table, headerStyle)
	if err := s.writeSummary(f, wb.FileName, summary, headerStyle); err != nil {
		s.logger.Error("生成汇总图表失败", zap.String("workbook_id", id), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	base := strings.TrimSuffix(wb.FileName, filepath.Ext(wb.FileName))
	return buf, fmt.Sprintf("成绩报告_%s.xlsx", base), nil
}

func (s *exportService) writeDetail(f *excelize.File, table *model.RecordTable, headerStyle int) {
	headers := []string{"行号", model.ColumnCourseName, model.ColumnScore, model.ColumnCredit, model.ColumnGradePoint, model.ColumnCategory, "说明"}
	for i, h := range headers {
		f.SetCellValue(detailSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detailSheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)
	f.SetColWidth(detailSheet, "B", "B", 24)
	f.SetColWidth(detailSheet, "G", "G", 20)

	for i, rec := range table.Records {
		row := i + 2
		f.SetCellValue(detailSheet, cell("A", row), i)
		f.SetCellValue(detailSheet, cell("B", row), rec.CourseName)
		f.SetCellValue(detailSheet, cell("C", row), rec.Score.CellValue())
		f.SetCellValue(detailSheet, cell("D", row), rec.Credit)
		f.SetCellValue(detailSheet, cell("E", row), rec.GradePoint)
		f.SetCellValue(detailSheet, cell("F", row), string(rec.Category))
		f.SetCellValue(detailSheet, cell("G", row), recordNote(rec))
	}
}

func (s *exportService) writeSummary(f *excelize.File, fileName string, sm *model.Summary, headerStyle int) error {
	f.SetColWidth(summarySheet, "A", "A", 32)
	f.SetColWidth(summarySheet, "B", "C", 14)

	f.SetCellValue(summarySheet, "A1", fmt.Sprintf("%s — 成绩汇总", fileName))
	f.MergeCell(summarySheet, "A1", "C1")
	f.SetCellStyle(summarySheet, "A1", "A1", headerStyle)

	metrics := []struct {
		label string
		value float64
	}{
		{"整体的百分制加权平均分", sm.AverageScore},
		{"必修课的百分制加权平均分", sm.RequiredAverageScore},
		{"整体平均学分绩点", sm.AverageGradePoint},
		{"必修课的平均学分绩点", sm.RequiredAverageGradePoint},
		{"保研中必修课的得分（满分80）", sm.RequiredScoreOutOf80},
	}
	row := 2
	for _, m := range metrics {
		f.SetCellValue(summarySheet, cell("A", row), m.label)
		f.SetCellValue(summarySheet, cell("B", row), FormatMetric(m.value))
		row++
	}

	// 分组平均分表：课程属性 | 平均成绩 | 门数
	row++
	tableTop := row
	f.SetCellValue(summarySheet, cell("A", row), model.ColumnCategory)
	f.SetCellValue(summarySheet, cell("B", row), "平均成绩")
	f.SetCellValue(summarySheet, cell("C", row), "门数")
	f.SetCellStyle(summarySheet, cell("A", row), cell("C", row), headerStyle)
	for _, m := range sm.CategoryMeans {
		row++
		f.SetCellValue(summarySheet, cell("A", row), string(m.Category))
		f.SetCellValue(summarySheet, cell("B", row), m.MeanScore)
		f.SetCellValue(summarySheet, cell("C", row), m.Count)
	}

	if len(sm.CategoryMeans) == 0 {
		return nil
	}

	first, last := tableTop+1, row
	return f.AddChart(summarySheet, "E2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$%d", summarySheet, tableTop),
			Categories: fmt.Sprintf("'%s'!$A$%d:$A$%d", summarySheet, first, last),
			Values:     fmt.Sprintf("'%s'!$B$%d:$B$%d", summarySheet, first, last),
		}},
		Title:    []excelize.RichTextRun{{Text: "不同课程属性的平均成绩"}},
		Legend:   excelize.ChartLegend{Position: "none"},
		PlotArea: excelize.ChartPlotArea{ShowVal: true},
	})
}

// recordNote 说明该行在汇总中的处理方式
func recordNote(rec model.CourseRecord) string {
	switch {
	case rec.Credit == 0:
		return "不计入（学分为0）"
	case rec.Score.Kind == model.ScorePass:
		return "不计入（通过）"
	case rec.Score.Kind == model.ScoreExempt:
		return "按90分计（免修）"
	}
	return ""
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
