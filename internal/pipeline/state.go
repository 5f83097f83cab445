package pipeline

import (
	"sync"

	"github.com/iabetor/voxstudio/internal/logger"
)

// State 表示一次合成运行的当前状态。
type State int

const (
	// StateIdle: 空闲，没有进行中的运行。
	StateIdle State = iota
	// StateChunking: 正在分段。
	StateChunking
	// StateSynthesizing: 合成请求已全部发出，正在按顺序消费并播放。
	StateSynthesizing
	// StateSucceeded: 全部分段完成并已合并。
	StateSucceeded
	// StateFailed: 某一段失败，整次运行失败。
	StateFailed
	// StateStopped: 运行被 Stop 打断。
	StateStopped
)

var stateNames = [...]string{
	"Idle",
	"Chunking",
	"Synthesizing",
	"Succeeded",
	"Failed",
	"Stopped",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Terminal 报告 s 是否为一次运行的结束状态。
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateStopped
}

// StateMachine 管理线程安全的状态转换。
type StateMachine struct {
	mu       sync.RWMutex
	current  State
	onChange func(from, to State)
}

// NewStateMachine 创建一个初始状态为 Idle 的状态机。
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
	}
}

// SetOnChange 注册状态变化时的回调函数。
func (sm *StateMachine) SetOnChange(fn func(from, to State)) {
	sm.mu.Lock()
	sm.onChange = fn
	sm.mu.Unlock()
}

// Current 返回当前状态。
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Transition 尝试切换状态。只有合法的转换才会生效：
//
//	Idle         → Chunking
//	Chunking     → Synthesizing | Succeeded（零段）| Failed | Stopped
//	Synthesizing → Succeeded | Failed | Stopped
//	结束状态     → Idle
//
// 任何状态都可以转换到 Idle（用于新一轮运行前的重置）。
func (sm *StateMachine) Transition(to State) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !validTransition(sm.current, to) {
		logger.Warnf("[state] 非法转换 %s → %s", sm.current, to)
		return false
	}

	from := sm.current
	sm.current = to
	logger.Debugf("[state] %s → %s", from, to)

	if sm.onChange != nil {
		sm.onChange(from, to)
	}
	return true
}

// ForceIdle 无条件重置状态为 Idle。
func (sm *StateMachine) ForceIdle() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	from := sm.current
	sm.current = StateIdle
	if from != StateIdle {
		logger.Debugf("[state] 强制重置 %s → Idle", from)
		if sm.onChange != nil {
			sm.onChange(from, StateIdle)
		}
	}
}

// validTransition 检查状态转换是否合法。
func validTransition(from, to State) bool {
	if to == StateIdle {
		return true
	}
	switch from {
	case StateIdle:
		return to == StateChunking
	case StateChunking:
		return to == StateSynthesizing || to.Terminal()
	case StateSynthesizing:
		return to.Terminal()
	}
	return false
}
