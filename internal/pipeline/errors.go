package pipeline

import "fmt"

// PipelineError 表示一次运行失败，Index 为第一个失败的分段序号
// （分段或合并阶段的失败为 -1）。
type PipelineError struct {
	Index int
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("合成流水线失败: %v", e.Err)
	}
	return fmt.Sprintf("合成流水线在第 %d 段失败: %v", e.Index+1, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
