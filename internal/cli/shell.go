// Package cli 提供成绩表交互式命令行的命令解析与输出
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/service"
	apperrors "gradebook/backend/pkg/errors"
)

const helpText = `可用命令:
  show                                          显示全部成绩
  row <行号>                                    显示单行（行号从 0 开始）
  edit <行号> <课程名称> <成绩> <学分> <绩点> <课程属性>   修改一行并写回文件
  add <课程名称> <成绩> <学分> <绩点> <课程属性>          追加一行并写回文件
  stats                                         计算加权平均分与绩点
  help                                          显示帮助
  exit                                          退出`

var suggestions = []prompt.Suggest{
	{Text: "show", Description: "显示全部成绩"},
	{Text: "row", Description: "显示单行"},
	{Text: "edit", Description: "修改一行"},
	{Text: "add", Description: "追加一行"},
	{Text: "stats", Description: "计算汇总"},
	{Text: "help", Description: "显示帮助"},
	{Text: "exit", Description: "退出"},
}

// Shell 绑定到一个已打开成绩表会话的命令执行器
type Shell struct {
	svc *service.Service
	id  string
	out io.Writer

	errColor  *color.Color
	okColor   *color.Color
	headColor *color.Color
}

// NewShell 创建 Shell，id 为 WorkbookService.Open 返回的会话 ID
func NewShell(svc *service.Service, id string, out io.Writer) *Shell {
	return &Shell{
		svc:       svc,
		id:        id,
		out:       out,
		errColor:  color.New(color.FgRed),
		okColor:   color.New(color.FgGreen),
		headColor: color.New(color.FgYellow, color.Bold),
	}
}

// Complete 命令补全，只补全第一个词
func (s *Shell) Complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

// Execute 执行一行命令，返回 false 表示应退出
func (s *Shell) Execute(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	ctx := context.Background()
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch cmd {
	case "exit", "quit":
		return false
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "show":
		err = s.show(ctx)
	case "row":
		err = s.row(ctx, args)
	case "edit":
		err = s.edit(ctx, args)
	case "add":
		err = s.add(ctx, args)
	case "stats":
		err = s.stats(ctx)
	default:
		s.errColor.Fprintf(s.out, "未知命令: %s（输入 help 查看帮助）\n", cmd)
	}

	if err != nil {
		s.errColor.Fprintln(s.out, describeError(err))
	}
	return true
}

func (s *Shell) show(ctx context.Context) error {
	wb, err := s.svc.Workbook.ListRecords(ctx, s.id)
	if err != nil {
		return err
	}
	s.headColor.Fprintf(s.out, "%s（共 %d 行）\n", wb.FileName, wb.Total)
	s.renderRecords(wb.Records)
	return nil
}

func (s *Shell) row(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("row <行号>")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return usageError("row <行号>")
	}
	rec, err := s.svc.Workbook.GetRecord(ctx, s.id, i)
	if err != nil {
		return err
	}
	s.renderRecords([]dto.CourseRecordResponse{*rec})
	return nil
}

func (s *Shell) edit(ctx context.Context, args []string) error {
	if len(args) != 6 {
		return usageError("edit <行号> <课程名称> <成绩> <学分> <绩点> <课程属性>")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return usageError("edit <行号> <课程名称> <成绩> <学分> <绩点> <课程属性>")
	}
	req, err := parseRecord(args[1:])
	if err != nil {
		return err
	}
	rec, err := s.svc.Workbook.UpdateRecord(ctx, s.id, i, req)
	if err != nil {
		return err
	}
	s.okColor.Fprintf(s.out, "第 %d 行已保存\n", rec.Row)
	return nil
}

func (s *Shell) add(ctx context.Context, args []string) error {
	if len(args) != 5 {
		return usageError("add <课程名称> <成绩> <学分> <绩点> <课程属性>")
	}
	req, err := parseRecord(args)
	if err != nil {
		return err
	}
	wb, err := s.svc.Workbook.AppendRecords(ctx, s.id, &dto.AppendRecordsRequest{
		Records: []dto.CourseRecordRequest{*req},
	})
	if err != nil {
		return err
	}
	s.okColor.Fprintf(s.out, "已追加，当前共 %d 行\n", wb.Total)
	return nil
}

func (s *Shell) stats(ctx context.Context) error {
	sum, err := s.svc.Summary.Summarize(ctx, s.id)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"指标", "数值"})
	table.Append([]string{"加权平均分", sum.AverageScore.Display})
	table.Append([]string{"加权平均绩点", sum.AverageGradePoint.Display})
	table.Append([]string{"必修加权平均分", sum.RequiredAverageScore.Display})
	table.Append([]string{"必修加权平均绩点", sum.RequiredAverageGradePoint.Display})
	table.Append([]string{"必修折算分（×0.8）", sum.RequiredScoreOutOf80.Display})
	table.Append([]string{"计入学分", strconv.FormatFloat(sum.TotalCredits, 'f', -1, 64)})
	table.Append([]string{"不计入行数", strconv.Itoa(sum.ExcludedRows)})
	table.Render()

	if len(sum.CategoryMeans) > 0 {
		s.headColor.Fprintln(s.out, "各课程属性平均分")
		cat := tablewriter.NewWriter(s.out)
		cat.SetHeader([]string{"课程属性", "平均分", "门数"})
		for _, m := range sum.CategoryMeans {
			cat.Append([]string{m.Category, m.MeanScore.Display, strconv.Itoa(m.Count)})
		}
		cat.Render()
	}
	return nil
}

func (s *Shell) renderRecords(records []dto.CourseRecordResponse) {
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"行", model.ColumnCourseName, model.ColumnScore, model.ColumnCredit, model.ColumnGradePoint, model.ColumnCategory})
	for _, r := range records {
		table.Append([]string{
			strconv.Itoa(r.Row),
			r.CourseName,
			r.Score.String(),
			strconv.FormatFloat(r.Credit, 'f', -1, 64),
			strconv.FormatFloat(r.GradePoint, 'f', -1, 64),
			r.Category,
		})
	}
	table.Render()
}

// parseRecord 解析 <课程名称> <成绩> <学分> <绩点> <课程属性>
func parseRecord(args []string) (*dto.CourseRecordRequest, error) {
	credit, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: 学分必须为数字: %q", apperrors.ErrValidation, args[2])
	}
	gp, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: 绩点必须为数字: %q", apperrors.ErrValidation, args[3])
	}
	score := model.ParseScore(args[1])
	return &dto.CourseRecordRequest{
		CourseName: args[0],
		Score:      &score,
		Credit:     &credit,
		GradePoint: &gp,
		Category:   args[4],
	}, nil
}

type usageError string

func (u usageError) Error() string { return "用法: " + string(u) }

func describeError(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrIndex):
		return "行号超出范围: " + err.Error()
	case errors.Is(err, apperrors.ErrValidation):
		return "字段校验失败: " + err.Error()
	case errors.Is(err, apperrors.ErrData):
		return "成绩数据无效: " + err.Error()
	case errors.Is(err, apperrors.ErrParse):
		return "成绩表解析失败: " + err.Error()
	default:
		return err.Error()
	}
}
