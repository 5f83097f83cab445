package pipeline

// Progress 是一次运行的进度事件。
// Percent 单调不减，RemainingSeconds 单调不增。
// Done 为 true 的事件是最后一个事件，Err 为 nil 表示成功。
type Progress struct {
	Percent          int
	RemainingSeconds float64
	Index            int // 刚消费完的分段序号，终止事件中为最后处理的序号
	Total            int
	Done             bool
	Err              error
}

// percentOf 返回消费完第 i 段（从 0 开始）后的百分比，向上取整，
// 三段时依次为 34、67、100。与四舍五入不同的情形是有意的：
// 七段时第一段为 15 而不是 14。
func percentOf(i, total int) int {
	if total <= 0 {
		return 100
	}
	return (100*(i+1) + total - 1) / total
}

// estimator 估算剩余时间，保证结果不增。
type estimator struct {
	perChunk float64
	last     float64
	started  bool
}

// remaining 返回消费完 done 段、共 total 段时的剩余秒数。
// perChunk <= 0 时按已用时间的平均值估算。
func (e *estimator) remaining(done, total int, elapsed float64) float64 {
	per := e.perChunk
	if per <= 0 && done > 0 {
		per = elapsed / float64(done)
	}
	v := float64(total-done) * per
	if v < 0 {
		v = 0
	}
	if e.started && v > e.last {
		v = e.last
	}
	e.last, e.started = v, true
	return v
}
