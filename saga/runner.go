package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ptvdata/logging"
)

// Runner 顺序执行步骤
type Runner struct {
	logger logging.Logger
	// observe 每个步骤结束后回调，用于指标
	observe func(StepResult)
}

// NewRunner 创建步骤执行器；observe 可以为 nil
func NewRunner(observe func(StepResult)) *Runner {
	return &Runner{
		logger:  logging.ComponentLogger("saga"),
		observe: observe,
	}
}

// Run 按顺序执行 steps
//
// 第一个失败的步骤之后的步骤记为 skipped，不会执行。返回的报告总是非 nil；
// 失败时错误同时满足 errors.Is(err, ErrStepFailed) 与 errors.Is(err, 步骤错误)。
func (r *Runner) Run(ctx context.Context, steps []Step) (*Report, error) {
	report := &Report{Steps: make([]StepResult, 0, len(steps))}
	if len(steps) == 0 {
		return report, ErrNoSteps
	}
	for _, s := range steps {
		if s.Name == "" || s.Run == nil {
			return report, fmt.Errorf("%w: %q", ErrInvalidStep, s.Name)
		}
	}

	var failure error
	for i, step := range steps {
		if failure != nil {
			report.Steps = append(report.Steps, StepResult{Phase: step.Phase, Name: step.Name, Status: StepSkipped})
			continue
		}

		start := time.Now()
		err := step.Run(ctx)
		res := StepResult{Phase: step.Phase, Name: step.Name, Status: StepCompleted, Duration: time.Since(start)}
		if err != nil {
			res.Status = StepFailed
			res.Err = err
			failure = err
			r.logger.Warn(ctx, "saga step failed", logging.Error(err),
				logging.String("phase", string(step.Phase)),
				logging.String("step", step.Name),
				logging.Int("completed", i))
		} else {
			r.logger.Debug(ctx, "saga step completed",
				logging.String("phase", string(step.Phase)),
				logging.String("step", step.Name))
		}
		report.Steps = append(report.Steps, res)
		if r.observe != nil {
			r.observe(res)
		}
	}

	if failure != nil {
		return report, errors.Join(ErrStepFailed, failure)
	}
	return report, nil
}
