package saga

import "errors"

var (
	// ErrStepFailed 某个步骤失败，之前已完成的步骤保持提交状态
	ErrStepFailed = errors.New("saga step failed")

	// ErrNoSteps 没有可执行的步骤
	ErrNoSteps = errors.New("saga has no steps")

	// ErrInvalidStep 步骤缺少名称或执行函数
	ErrInvalidStep = errors.New("saga invalid step")
)
