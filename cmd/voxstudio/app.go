package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/iabetor/voxstudio/internal/audio"
	"github.com/iabetor/voxstudio/internal/config"
	"github.com/iabetor/voxstudio/internal/database"
	"github.com/iabetor/voxstudio/internal/history"
	"github.com/iabetor/voxstudio/internal/logger"
	"github.com/iabetor/voxstudio/internal/objectstore"
	"github.com/iabetor/voxstudio/internal/pipeline"
	"github.com/iabetor/voxstudio/internal/tts"
)

// app 持有一次命令执行期间的共享资源。播放设备按需打开，进程内只有一个调度器。
type app struct {
	cfg *config.Config

	db      *database.DB
	history *history.Store

	store      objectstore.Store
	closeStore func()

	sink  *audio.DeviceSink
	sched *audio.Scheduler

	engine tts.Engine
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("[main] 配置文件 %s 不存在，使用默认配置", configPath)
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	a := &app{cfg: cfg}

	a.db, err = database.Open(cfg.History.DBPath)
	if err != nil {
		return nil, err
	}
	if err := a.db.Migrate(); err != nil {
		a.Close()
		return nil, err
	}
	a.history = history.NewStore(a.db)

	a.store, a.closeStore, err = objectstore.Open(cfg.Export)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// scheduler 返回绑定到扬声器的调度器，首次调用时打开设备。
func (a *app) scheduler() (*audio.Scheduler, error) {
	if a.sched != nil {
		return a.sched, nil
	}
	sink, err := audio.NewDeviceSink(a.cfg.Audio.SampleRate, a.cfg.Audio.Channels)
	if err != nil {
		return nil, err
	}
	a.sink = sink
	a.sched = audio.NewScheduler(sink)
	return a.sched, nil
}

// ttsEngine 返回配置的合成引擎，首次调用时创建。
func (a *app) ttsEngine() (tts.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	eng, err := pipeline.NewEngine(a.cfg)
	if err != nil {
		return nil, err
	}
	a.engine = eng
	return eng, nil
}

func (a *app) Close() {
	if a.sched != nil {
		a.sched.StopAll()
	}
	if a.sink != nil {
		a.sink.Close()
	}
	if c, ok := a.engine.(interface{ Close() }); ok {
		c.Close()
	}
	if a.closeStore != nil {
		a.closeStore()
	}
	if a.db != nil {
		a.db.Close()
	}
	logger.Sync()
}
