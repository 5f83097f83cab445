package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iabetor/voxstudio/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/voxstudio.yaml", "配置文件路径")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	a, err := newApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// 监听系统信号：第一次停止播放并退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在停止...", sig)
		cancel()
	}()

	err = run(ctx, a, args[0], args[1:])
	cancel()
	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app, cmd string, args []string) error {
	switch cmd {
	case "generate":
		return cmdGenerate(ctx, a, args)
	case "preview":
		return cmdPreview(ctx, a, args)
	case "voices":
		cmdVoices()
		return nil
	case "history":
		return cmdHistory(ctx, a, args)
	case "feed":
		return cmdFeed(ctx, a, args)
	}
	printUsage()
	return fmt.Errorf("未知命令: %s", cmd)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "voxstudio 文本转语音工具")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "用法: voxstudio [-config <path>] <command> [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "命令:")
	fmt.Fprintln(os.Stderr, "  generate [flags] [文本]     合成并播放，文本为空时从 -file 或标准输入读取")
	fmt.Fprintln(os.Stderr, "  preview [-voice <id>]       试听音色")
	fmt.Fprintln(os.Stderr, "  voices                      列出所有音色")
	fmt.Fprintln(os.Stderr, "  history list [-n N]         列出合成历史")
	fmt.Fprintln(os.Stderr, "  history play <id>           重放历史音频")
	fmt.Fprintln(os.Stderr, "  history export <id> [-out]  导出历史音频为 WAV")
	fmt.Fprintln(os.Stderr, "  history delete <id>         删除历史记录及音频")
	fmt.Fprintln(os.Stderr, "  feed [flags] <url>          朗读 RSS 订阅源的最新条目")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "generate / feed 参数:")
	fmt.Fprintln(os.Stderr, "  -voice <id>     音色，默认取配置")
	fmt.Fprintln(os.Stderr, "  -style <name>   Normal | Emotional | Storytelling | News Style")
	fmt.Fprintln(os.Stderr, "  -speed <x>      播放速率 0.5 ~ 2.0")
	fmt.Fprintln(os.Stderr, "  -out <path>     同时把结果写入 WAV 文件")
	fmt.Fprintln(os.Stderr, "  -no-play        只合成与导出，不播放")
	fmt.Fprintln(os.Stderr, "  -translate      合成前翻译为配置的目标语言")
}
