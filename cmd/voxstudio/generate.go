package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/voxstudio/internal/audio"
	"github.com/iabetor/voxstudio/internal/config"
	"github.com/iabetor/voxstudio/internal/feed"
	"github.com/iabetor/voxstudio/internal/history"
	"github.com/iabetor/voxstudio/internal/logger"
	"github.com/iabetor/voxstudio/internal/pipeline"
	"github.com/iabetor/voxstudio/internal/translate"
	"github.com/iabetor/voxstudio/internal/tts"
)

// genOptions 是 generate / feed / preview 共用的参数。
type genOptions struct {
	voice     string
	style     string
	speed     float64
	out       string
	file      string
	noPlay    bool
	translate bool
	save      bool
}

func newGenFlags(name string, cfg *config.Config, o *genOptions) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&o.voice, "voice", cfg.Synthesis.Voice, "音色 ID")
	fs.StringVar(&o.style, "style", cfg.Synthesis.Style, "朗读风格")
	fs.Float64Var(&o.speed, "speed", cfg.Playback.Speed, "播放速率 (0.5 ~ 2.0)")
	fs.StringVar(&o.out, "out", "", "同时写入的 WAV 文件路径")
	fs.BoolVar(&o.noPlay, "no-play", cfg.Playback.Mute, "只合成与导出，不播放")
	fs.BoolVar(&o.translate, "translate", false, "合成前翻译")
	o.save = true
	return fs
}

func cmdGenerate(ctx context.Context, a *app, args []string) error {
	var o genOptions
	fs := newGenFlags("generate", a.cfg, &o)
	fs.StringVar(&o.file, "file", "", "从文件读取文本")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text, err := readText(fs.Args(), o.file, os.Stdin)
	if err != nil {
		return err
	}
	return a.generate(ctx, text, o)
}

func cmdPreview(ctx context.Context, a *app, args []string) error {
	var o genOptions
	fs := newGenFlags("preview", a.cfg, &o)
	if err := fs.Parse(args); err != nil {
		return err
	}
	o.save = false
	return a.generate(ctx, tts.PreviewText, o)
}

func cmdFeed(ctx context.Context, a *app, args []string) error {
	var o genOptions
	fs := newGenFlags("feed", a.cfg, &o)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("用法: voxstudio feed [flags] <url>")
	}

	fetcher := feed.NewFetcher(time.Duration(a.cfg.Feed.Timeout)*time.Second, a.cfg.Feed.MaxItems)
	f, err := fetcher.Fetch(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: %d 条\n", f.Title, len(f.Items))
	return a.generate(ctx, f.Script(), o)
}

// readText 依次从参数、文件、标准输入读取待合成文本。
func readText(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("读取文本文件失败: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("读取标准输入失败: %w", err)
	}
	return string(data), nil
}

// exportFilename 返回导出文件的默认文件名。
func exportFilename(voiceName string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(voiceName)), "-")
	if slug == "" {
		slug = "audio"
	}
	return "voxstudio-" + slug + ".wav"
}

func (a *app) generate(ctx context.Context, text string, o genOptions) error {
	voice, ok := tts.LookupVoice(o.voice)
	if !ok {
		return fmt.Errorf("未知音色 %q，使用 voxstudio voices 查看可用音色", o.voice)
	}
	style, err := tts.ParseStyle(o.style)
	if err != nil {
		return err
	}
	speed := config.ClampSpeed(o.speed)
	if speed != o.speed {
		logger.Warnf("[main] 播放速率 %.2f 超出范围，已调整为 %.2f", o.speed, speed)
	}

	if o.translate {
		tc := a.cfg.Translate
		tr, err := translate.New(translate.Config{
			SecretID:  tc.SecretID,
			SecretKey: tc.SecretKey,
			Region:    tc.Region,
			Source:    tc.Source,
			Target:    tc.Target,
		})
		if err != nil {
			return err
		}
		if text, err = tr.Translate(ctx, text); err != nil {
			return err
		}
	}

	eng, err := a.ttsEngine()
	if err != nil {
		return err
	}
	var sched *audio.Scheduler
	if !o.noPlay {
		if sched, err = a.scheduler(); err != nil {
			return err
		}
	}

	bar := newProgressBar(os.Stderr)
	orch, err := pipeline.New(pipeline.Options{
		Engine:          eng,
		Scheduler:       sched,
		SampleRate:      a.cfg.Audio.SampleRate,
		MaxChars:        a.cfg.Chunker.MaxChars,
		Timeout:         time.Duration(a.cfg.Synthesis.Timeout) * time.Second,
		SecondsPerChunk: a.cfg.Synthesis.SecondsPerChunk,
		Rate:            speed,
		OnProgress:      bar.update,
	})
	if err != nil {
		return err
	}
	// 收到信号时停止合成与播放
	stop := context.AfterFunc(ctx, orch.Stop)
	defer stop()

	res, err := orch.Run(ctx, text, voice, style)
	if err != nil {
		if errors.Is(err, audio.ErrStopped) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("已停止")
		}
		return fmt.Errorf("合成失败: %w\n可重新运行同一命令重试", err)
	}
	if res.Buffer == nil {
		fmt.Fprintln(os.Stderr, "文本为空，没有可合成的内容。")
		return nil
	}

	if o.save {
		rec, err := a.save(ctx, text, voice, style, res)
		if err != nil {
			return err
		}
		fmt.Printf("已保存 %s  %s  %.1fs\n", shortID(rec.ID), voice.Name, res.Duration.Seconds())
	}
	if o.out != "" {
		if err := writeWAVFile(o.out, res.Buffer); err != nil {
			return err
		}
		fmt.Printf("已导出 %s\n", o.out)
	}

	if sched != nil {
		if err := sched.Wait(ctx); err != nil {
			return fmt.Errorf("已停止")
		}
	}
	return nil
}

// save 编码 WAV、上传到导出存储并写入历史记录。
func (a *app) save(ctx context.Context, text string, voice tts.Voice, style tts.Style, res *pipeline.Result) (*history.Record, error) {
	rec := &history.Record{
		ID:        uuid.NewString(),
		Text:      text,
		VoiceID:   voice.ID,
		VoiceName: voice.Name,
		Style:     style.String(),
		Duration:  res.Duration,
	}
	rec.ArtifactKey = rec.ID + ".wav"

	if err := a.store.Upload(ctx, rec.ArtifactKey, audio.EncodeWAV(res.Buffer)); err != nil {
		return nil, err
	}
	if err := a.history.Add(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func writeWAVFile(path string, buf *audio.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建 %s 失败: %w", path, err)
	}
	if err := audio.WriteWAV(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func cmdVoices() {
	fmt.Println("  ID        | 名称      | 人设")
	fmt.Println("  ----------+-----------+----------------")
	for _, v := range tts.Voices() {
		mark := " "
		if v.Recommended {
			mark = "*"
		}
		fmt.Printf("%s %-10s| %-10s| %s\n", mark, v.ID, v.Name, v.Persona)
	}
	fmt.Println()
	fmt.Print("风格: ")
	names := make([]string, 0, 4)
	for _, s := range tts.Styles() {
		names = append(names, s.String())
	}
	fmt.Println(strings.Join(names, ", "))
}
