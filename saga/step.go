// Package saga 顺序执行一组各自独立提交的步骤，并返回步骤完成报告
//
// 步骤之间没有补偿：中途失败时，已完成的步骤保持提交，报告说明停在了哪里。
package saga

import (
	"context"
	"time"
)

// Phase 步骤所属阶段
type Phase string

const (
	PhasePre     Phase = "pre"
	PhasePrimary Phase = "primary"
	PhasePost    Phase = "post"
)

// StepStatus 步骤执行状态
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	// StepSkipped 前面的步骤失败，本步骤未执行
	StepSkipped StepStatus = "skipped"
)

// Step 一个独立提交的步骤
type Step struct {
	Name  string
	Phase Phase
	Run   func(ctx context.Context) error
}

// NewStep 创建步骤
func NewStep(phase Phase, name string, run func(ctx context.Context) error) Step {
	return Step{Name: name, Phase: phase, Run: run}
}

// StepResult 单个步骤的结果
type StepResult struct {
	Phase    Phase
	Name     string
	Status   StepStatus
	Err      error
	Duration time.Duration
}

// Report 步骤完成报告，顺序与步骤定义一致
type Report struct {
	Steps []StepResult
}

// Succeeded 全部步骤完成
func (r *Report) Succeeded() bool {
	if r == nil {
		return false
	}
	for _, s := range r.Steps {
		if s.Status != StepCompleted {
			return false
		}
	}
	return true
}

// Completed 返回已完成的步骤
func (r *Report) Completed() []StepResult {
	if r == nil {
		return nil
	}
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == StepCompleted {
			out = append(out, s)
		}
	}
	return out
}

// Failed 返回失败的步骤
func (r *Report) Failed() (StepResult, bool) {
	if r != nil {
		for _, s := range r.Steps {
			if s.Status == StepFailed {
				return s, true
			}
		}
	}
	return StepResult{}, false
}

// Partial 有步骤失败且之前有步骤已提交
func (r *Report) Partial() bool {
	_, failed := r.Failed()
	return failed && len(r.Completed()) > 0
}
