package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/iabetor/voxstudio/internal/audio"
	"github.com/iabetor/voxstudio/internal/history"
	"github.com/iabetor/voxstudio/internal/logger"
	"github.com/iabetor/voxstudio/internal/objectstore"
)

func cmdHistory(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("用法: voxstudio history list|play|export|delete")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		fs := flag.NewFlagSet("history list", flag.ContinueOnError)
		n := fs.Int("n", 20, "显示条数，0 表示全部")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return historyList(a, *n)
	case "play":
		if len(rest) < 1 {
			return fmt.Errorf("用法: voxstudio history play <id>")
		}
		return historyPlay(ctx, a, rest[0])
	case "export":
		fs := flag.NewFlagSet("history export", flag.ContinueOnError)
		out := fs.String("out", "", "输出路径，默认 voxstudio-<音色>.wav")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() < 1 {
			return fmt.Errorf("用法: voxstudio history export [-out <path>] <id>")
		}
		return historyExport(ctx, a, fs.Arg(0), *out)
	case "delete":
		if len(rest) < 1 {
			return fmt.Errorf("用法: voxstudio history delete <id>")
		}
		return historyDelete(ctx, a, rest[0])
	}
	return fmt.Errorf("未知的 history 子命令: %s", sub)
}

func historyList(a *app, n int) error {
	records, err := a.history.List(n)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("暂无合成历史。")
		return nil
	}

	fmt.Printf("共 %d 条记录:\n", a.history.Count())
	for _, r := range records {
		fmt.Printf("  %s  %s  %-8s %-12s %6.1fs  %s\n",
			shortID(r.ID),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.VoiceName,
			r.Style,
			r.Duration.Seconds(),
			r.Preview(a.cfg.History.PreviewChars),
		)
	}
	return nil
}

// loadAudio 取出记录对应的 WAV 数据。
func loadAudio(ctx context.Context, a *app, id string) (*history.Record, []byte, error) {
	rec, err := a.history.Get(id)
	if err != nil {
		return nil, nil, err
	}
	data, err := a.store.Download(ctx, rec.ArtifactKey)
	if errors.Is(err, objectstore.ErrNotFound) {
		return rec, nil, fmt.Errorf("记录 %s 的音频已丢失", shortID(rec.ID))
	}
	if err != nil {
		return rec, nil, err
	}
	return rec, data, nil
}

func historyPlay(ctx context.Context, a *app, id string) error {
	rec, data, err := loadAudio(ctx, a, id)
	if err != nil {
		return err
	}
	buf, err := audio.DecodeWAV(bytes.NewReader(data))
	if err != nil {
		return err
	}

	sched, err := a.scheduler()
	if err != nil {
		return err
	}
	fmt.Printf("播放 %s  %s  %.1fs\n", shortID(rec.ID), rec.VoiceName, buf.Seconds())
	if _, err := sched.Schedule(ctx, sched.Begin(), buf, a.cfg.Playback.Speed); err != nil {
		return err
	}
	return sched.Wait(ctx)
}

func historyExport(ctx context.Context, a *app, id, out string) error {
	rec, data, err := loadAudio(ctx, a, id)
	if err != nil {
		return err
	}
	if out == "" {
		out = exportFilename(rec.VoiceName)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", out, err)
	}
	fmt.Printf("已导出 %s\n", out)
	return nil
}

func historyDelete(ctx context.Context, a *app, id string) error {
	rec, err := a.history.Delete(id)
	if err != nil {
		return err
	}
	if rec.ArtifactKey != "" {
		if err := a.store.Delete(ctx, rec.ArtifactKey); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			logger.Warnf("[main] 删除音频 %s 失败: %v", rec.ArtifactKey, err)
		}
	}
	fmt.Printf("记录 %s 已删除。\n", shortID(rec.ID))
	return nil
}
