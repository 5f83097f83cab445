package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iabetor/voxstudio/internal/audio"
	"github.com/iabetor/voxstudio/internal/logger"
	"github.com/iabetor/voxstudio/internal/tts"
)

// Options 配置 Orchestrator。
type Options struct {
	Engine tts.Engine
	// Cache 为 nil 时新建一个，生命周期与 Orchestrator 相同。
	Cache *audio.BufferCache
	// Scheduler 为 nil 时为无声模式，只合成与合并（用于导出）。
	Scheduler *audio.Scheduler

	SampleRate int
	MaxChars   int
	// Timeout 单段合成时限，<= 0 表示不限时。
	Timeout time.Duration
	// SecondsPerChunk 估算剩余时间用，<= 0 时按实际耗时估算。
	SecondsPerChunk float64
	// Rate 初始播放速率，<= 0 时为 1.0。
	Rate float64

	OnProgress    func(Progress)
	OnStateChange func(from, to State)
}

// Result 是一次成功运行的输出。零段输入时 Buffer 为 nil。
type Result struct {
	Buffer   *audio.Buffer
	Duration time.Duration
	Chunks   int
}

// Orchestrator 把文本分段后并发合成，再按顺序交给调度器播放并合并。
// 同一时刻只有一次运行有效，新的 Run 会先停止旧的运行和所有播放。
type Orchestrator struct {
	engine     tts.Engine
	cache      *audio.BufferCache
	sched      *audio.Scheduler
	sampleRate int
	maxChars   int
	perChunk   float64
	onProgress func(Progress)

	group singleflight.Group
	state *StateMachine

	mu        sync.Mutex
	rate      float64
	runID     uint64
	cancelRun context.CancelFunc
}

// New 创建 Orchestrator。
func New(opts Options) (*Orchestrator, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("[pipeline] 未配置合成引擎")
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = audio.DefaultSampleRate
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.Rate <= 0 {
		opts.Rate = 1.0
	}
	if opts.Cache == nil {
		opts.Cache = audio.NewBufferCache()
	}

	o := &Orchestrator{
		engine:     tts.WithTimeout(opts.Engine, opts.Timeout),
		cache:      opts.Cache,
		sched:      opts.Scheduler,
		sampleRate: opts.SampleRate,
		maxChars:   opts.MaxChars,
		perChunk:   opts.SecondsPerChunk,
		onProgress: opts.OnProgress,
		state:      NewStateMachine(),
		rate:       opts.Rate,
	}
	if opts.OnStateChange != nil {
		o.state.SetOnChange(opts.OnStateChange)
	}
	return o, nil
}

// State 返回当前运行状态。
func (o *Orchestrator) State() State { return o.state.Current() }

// Cache 返回结果缓存。
func (o *Orchestrator) Cache() *audio.BufferCache { return o.cache }

// SetRate 修改播放速率，只影响之后排入的分段。
func (o *Orchestrator) SetRate(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return audio.ErrInvalidRate
	}
	o.mu.Lock()
	o.rate = rate
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) currentRate() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

// Stop 取消进行中的运行并停止所有播放。进行中的合成请求会继续完成并写入缓存。
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.cancelRun != nil {
		o.cancelRun()
		o.cancelRun = nil
	}
	o.mu.Unlock()
	if o.sched != nil {
		o.sched.StopAll()
	}
}

// slot 是一个分段的异步合成结果，done 关闭后 buf/err 可读。
type slot struct {
	buf  *audio.Buffer
	err  error
	done chan struct{}
}

// Run 合成 text 并按顺序播放，返回合并后的音频。
// 任一分段失败则整次运行失败，已播放的部分不回退。
func (o *Orchestrator) Run(ctx context.Context, text string, voice tts.Voice, style tts.Style) (*Result, error) {
	runCtx, cancel := context.WithCancel(ctx)

	// 先停掉旧的运行和播放，保证同一时刻只有一次运行。
	// 会话在持锁期间取得，旧运行迟到的 StopAll 不会作废它。
	var sess audio.Session
	o.mu.Lock()
	if o.cancelRun != nil {
		o.cancelRun()
	}
	o.runID++
	id := o.runID
	o.cancelRun = cancel
	if o.sched != nil {
		o.sched.StopAll()
		sess = o.sched.Begin()
	}
	o.mu.Unlock()
	defer o.endRun(id, cancel)

	o.state.ForceIdle()
	o.transition(id, StateChunking)

	chunks, err := SplitChunks(text, o.maxChars)
	if err != nil {
		return nil, o.fail(id, -1, 0, &PipelineError{Index: -1, Err: err})
	}
	total := len(chunks)
	if total == 0 {
		logger.Infof("[pipeline] 文本为空，无需合成")
		o.transition(id, StateSucceeded)
		o.emit(Progress{Percent: 100, Index: -1, Done: true})
		return &Result{}, nil
	}

	o.transition(id, StateSynthesizing)
	logger.Infof("[pipeline] 共 %d 段，音色 %s，风格 %s", total, voice.Name, style)

	// 合成请求脱离运行的取消：Stop 之后仍会完成并写入缓存
	synthCtx := context.WithoutCancel(ctx)
	slots := make([]*slot, total)
	for i, chunk := range chunks {
		s := &slot{done: make(chan struct{})}
		slots[i] = s
		go func(i int, chunk string) {
			defer close(s.done)
			s.buf, s.err = o.synthesize(synthCtx, chunk, voice, style)
			if s.err != nil {
				logger.Warnf("[pipeline] 第 %d 段合成失败: %v", i+1, s.err)
			}
		}(i, chunk)
	}

	began := time.Now()
	est := &estimator{perChunk: o.perChunk}
	bufs := make([]*audio.Buffer, 0, total)
	percent := 0

	for i, s := range slots {
		select {
		case <-s.done:
		case <-runCtx.Done():
			return nil, o.stopped(ctx, id, i, percent)
		}
		if s.err != nil {
			return nil, o.fail(id, i, percent, &PipelineError{Index: i, Err: s.err})
		}

		percent = percentOf(i, total)
		o.emit(Progress{
			Percent:          percent,
			RemainingSeconds: est.remaining(i+1, total, time.Since(began).Seconds()),
			Index:            i,
			Total:            total,
		})

		if o.sched != nil {
			if _, err := o.sched.Schedule(runCtx, sess, s.buf, o.currentRate()); err != nil {
				if errors.Is(err, audio.ErrStopped) || runCtx.Err() != nil {
					return nil, o.stopped(ctx, id, i, percent)
				}
				return nil, o.fail(id, i, percent, &PipelineError{Index: i, Err: err})
			}
		}
		bufs = append(bufs, s.buf)
	}

	merged, err := audio.Merge(bufs)
	if err != nil {
		return nil, o.fail(id, -1, percent, &PipelineError{Index: -1, Err: err})
	}

	res := &Result{Buffer: merged, Duration: merged.Duration(), Chunks: total}
	logger.Infof("[pipeline] 完成，共 %d 段，时长 %.2fs", total, res.Duration.Seconds())
	o.transition(id, StateSucceeded)
	o.emit(Progress{Percent: 100, Index: total - 1, Total: total, Done: true})
	return res, nil
}

// synthesize 返回一段文本的音频：先查缓存，未命中时合成并解码后写入缓存。
// 相同 key 的并发请求只发出一次调用。
func (o *Orchestrator) synthesize(ctx context.Context, text string, voice tts.Voice, style tts.Style) (*audio.Buffer, error) {
	key := audio.NewKey(voice.ID, style.String(), text)
	if buf, ok := o.cache.Get(key); ok {
		logger.Debugf("[pipeline] 缓存命中 %s", key.Fingerprint()[:12])
		return buf, nil
	}

	v, err, _ := o.group.Do(key.Fingerprint(), func() (interface{}, error) {
		if buf, ok := o.cache.Get(key); ok {
			return buf, nil
		}
		pcm, err := o.engine.Synthesize(ctx, tts.Request{Text: text, Voice: voice, Style: style})
		if err != nil {
			return nil, err
		}
		buf, err := audio.Decode(pcm, o.sampleRate, 1)
		if err != nil {
			return nil, err
		}
		o.cache.Put(key, buf)
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*audio.Buffer), nil
}

func (o *Orchestrator) isCurrent(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return id == o.runID
}

// transition 只允许当前运行推动状态机，被取代的旧运行不再改变状态。
func (o *Orchestrator) transition(id uint64, to State) {
	if o.isCurrent(id) {
		o.state.Transition(to)
	}
}

func (o *Orchestrator) endRun(id uint64, cancel context.CancelFunc) {
	cancel()
	o.mu.Lock()
	current := id == o.runID
	if current {
		o.cancelRun = nil
	}
	o.mu.Unlock()
	if current {
		o.state.Transition(StateIdle)
	}
}

func (o *Orchestrator) fail(id uint64, index, percent int, err error) error {
	logger.Errorf("[pipeline] 运行失败: %v", err)
	o.transition(id, StateFailed)
	o.emit(Progress{Percent: percent, Index: index, Done: true, Err: err})
	return err
}

// stopped 处理运行被打断：Stop 触发时返回 ErrStopped，调用方取消 ctx 时返回 ctx 的错误。
func (o *Orchestrator) stopped(ctx context.Context, id uint64, index, percent int) error {
	cause := audio.ErrStopped
	if ctx.Err() != nil {
		cause = ctx.Err()
		// 调用方取消时播放也一并停止，已被新运行取代时不动新运行的会话
		o.mu.Lock()
		if id == o.runID && o.sched != nil {
			o.sched.StopAll()
		}
		o.mu.Unlock()
	}
	err := &PipelineError{Index: index, Err: cause}
	logger.Infof("[pipeline] 运行在第 %d 段被停止", index+1)
	o.transition(id, StateStopped)
	o.emit(Progress{Percent: percent, Index: index, Done: true, Err: err})
	return err
}

func (o *Orchestrator) emit(p Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}
