package audio

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iabetor/voxstudio/internal/logger"
)

var (
	// ErrStopped 表示调度所属的会话已被 StopAll 作废。
	ErrStopped = errors.New("播放已停止")
	// ErrInvalidRate 表示播放速率不是正数。
	ErrInvalidRate = errors.New("播放速率必须为正数")
)

// Clock 是输出设备的单调时钟。
type Clock interface {
	Now() time.Duration
}

// Sink 是实际的音频输出端。
// Submit 后由 Sink 在 h.Start() 时刻开始播放，开始时调用 h.MarkStarted，
// 播放完毕调用 h.Finish。Cancel 必须容忍已经结束的 Handle。
type Sink interface {
	Clock
	Submit(h *Handle) error
	Cancel(h *Handle)
}

// Handle 是一个已排入时间线的播放单元。
type Handle struct {
	buf   *Buffer
	rate  float64
	start time.Duration
	end   time.Duration

	started   chan struct{}
	done      chan struct{}
	startOnce sync.Once
	doneOnce  sync.Once
	cancelled atomic.Bool

	sink    Sink
	release func(*Handle)
}

func (h *Handle) Buffer() *Buffer { return h.buf }

func (h *Handle) Rate() float64 { return h.rate }

// Start 返回该单元在设备时间线上的起始时刻。
func (h *Handle) Start() time.Duration { return h.start }

// End 返回该单元在设备时间线上的结束时刻。
func (h *Handle) End() time.Duration { return h.end }

// Started 在单元开始发声时关闭。
func (h *Handle) Started() <-chan struct{} { return h.started }

// Done 在单元播放完毕或被取消时关闭。
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancelled 报告该单元是否被主动停止。
func (h *Handle) Cancelled() bool { return h.cancelled.Load() }

// Stop 取消该单元，可重复调用。
func (h *Handle) Stop() {
	select {
	case <-h.done:
		return
	default:
	}
	if h.cancelled.Swap(true) {
		return
	}
	h.sink.Cancel(h)
	h.Finish()
}

// MarkStarted 由 Sink 在单元开始发声时调用，可重复调用。
func (h *Handle) MarkStarted() {
	h.startOnce.Do(func() { close(h.started) })
}

// Finish 由 Sink 在单元播放完毕时调用，可重复调用。
func (h *Handle) Finish() {
	h.doneOnce.Do(func() {
		close(h.done)
		if h.release != nil {
			h.release(h)
		}
	})
}

func (h *Handle) hasStarted() bool {
	select {
	case <-h.started:
		return true
	default:
		return false
	}
}

// Session 是 Begin 时捕获的代际令牌，StopAll 之后旧令牌失效。
type Session struct {
	generation uint64
}

// Scheduler 维护唯一的播放时间线游标，保证按调用顺序无缝、不重叠地播放。
// 每个进程只应有一个实例，它独占输出设备。
type Scheduler struct {
	sink Sink

	mu         sync.Mutex
	cursor     time.Duration
	generation uint64

	// activeMu 单独保护 active，Sink 回调结束单元时只需要它。
	// 加锁顺序: mu → activeMu。
	activeMu sync.Mutex
	active   map[*Handle]struct{}
}

// NewScheduler 创建绑定到 sink 的调度器。
func NewScheduler(sink Sink) *Scheduler {
	return &Scheduler{
		sink:   sink,
		active: make(map[*Handle]struct{}),
	}
}

// Begin 开始一个新的调度会话。
func (s *Scheduler) Begin() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{generation: s.generation}
}

// Cursor 返回时间线游标（最后一个单元的结束时刻）。
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Active 返回尚未结束的单元数。
func (s *Scheduler) Active() int {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return len(s.active)
}

// Schedule 把 buf 排到时间线上：起点为 max(游标, 设备当前时刻)，
// 时长为 frames / sampleRate / rate，游标推进到起点加时长。
// 调用会阻塞到该单元真正开始发声，从而把缓冲限制在播放之前至多一段。
// 会话已被 StopAll 作废时返回 ErrStopped，且不会占用时间线。
func (s *Scheduler) Schedule(ctx context.Context, sess Session, buf *Buffer, rate float64) (*Handle, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, ErrInvalidRate
	}

	s.mu.Lock()
	if sess.generation != s.generation {
		s.mu.Unlock()
		return nil, ErrStopped
	}

	start := s.cursor
	if now := s.sink.Now(); now > start {
		start = now
	}
	d := time.Duration(math.Round(buf.Seconds() / rate * float64(time.Second)))
	h := &Handle{
		buf:     buf,
		rate:    rate,
		start:   start,
		end:     start + d,
		started: make(chan struct{}),
		done:    make(chan struct{}),
		sink:    s.sink,
		release: s.release,
	}
	s.activeMu.Lock()
	s.active[h] = struct{}{}
	s.activeMu.Unlock()
	if err := s.sink.Submit(h); err != nil {
		s.release(h)
		s.mu.Unlock()
		return nil, err
	}
	s.cursor = h.end
	s.mu.Unlock()

	logger.Debugf("[scheduler] 排入 %.3fs → %.3fs (速率 %.2f)", h.start.Seconds(), h.end.Seconds(), rate)

	// 已经开始发声时优先返回成功
	select {
	case <-h.started:
		return h, nil
	default:
	}
	select {
	case <-h.started:
		return h, nil
	case <-h.done:
		if h.hasStarted() {
			return h, nil
		}
		return nil, ErrStopped
	case <-ctx.Done():
		return h, ctx.Err()
	}
}

// StopAll 取消所有活动单元并把游标归零，使下一次 Schedule 立即开始。
// 同时作废当前会话，迟到的合成结果不会再被排入。任何时候调用都是安全的。
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	s.cursor = 0
	s.generation++
	s.activeMu.Lock()
	handles := make([]*Handle, 0, len(s.active))
	for h := range s.active {
		handles = append(handles, h)
	}
	s.active = make(map[*Handle]struct{})
	s.activeMu.Unlock()
	s.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
	if len(handles) > 0 {
		logger.Infof("[scheduler] 已停止 %d 个播放单元", len(handles))
	}
}

func (s *Scheduler) release(h *Handle) {
	s.activeMu.Lock()
	delete(s.active, h)
	s.activeMu.Unlock()
}

// Wait 阻塞直到所有已排入的单元播放完毕或 ctx 结束。
func (s *Scheduler) Wait(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for s.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
