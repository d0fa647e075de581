package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/c-bata/go-prompt"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gradebook/backend/config"
	"gradebook/backend/internal/cli"
	"gradebook/backend/internal/repository"
	"gradebook/backend/internal/service"
	applogger "gradebook/backend/pkg/logger"
)

func main() {
	file := flag.String("file", "", "成绩表路径（xlsx），编辑直接写回该文件")
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	if *file == "" && flag.NArg() > 0 {
		*file = flag.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "用法: gradecli --file <成绩表.xlsx>")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 交互模式下日志只输出警告以上，避免干扰表格输出
	cfg.Log.Level = "warn"
	cfg.Log.Format = "console"
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	repo := repository.NewRepository(&cfg.Storage)
	svc := service.NewService(cfg, repo, logger)

	wb, err := svc.Workbook.Open(context.Background(), *file)
	if err != nil {
		logger.Error("打开成绩表失败", zap.String("path", *file), zap.Error(err))
		color.Red("打开成绩表失败: %v", err)
		os.Exit(1)
	}

	color.Cyan("已打开 %s，共 %d 行。输入 help 查看命令。", wb.FileName, wb.Total)

	shell := cli.NewShell(svc, wb.ID, os.Stdout)
	p := prompt.New(
		func(line string) {
			if !shell.Execute(line) {
				_ = svc.Workbook.Close(context.Background(), wb.ID)
				os.Exit(0)
			}
		},
		shell.Complete,
		prompt.OptionTitle("gradecli: 成绩表编辑与统计"),
		prompt.OptionPrefix("grade> "),
	)
	p.Run()
}
