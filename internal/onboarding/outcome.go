package onboarding

import (
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
)

// OutcomeKind 一次阶段提交的结果类型
type OutcomeKind string

const (
	OutcomeSubmitted OutcomeKind = "submitted"

	// OutcomeDeferred 缺少前置字段，已存为草稿；对用户而言视为成功
	OutcomeDeferred OutcomeKind = "deferred"
	OutcomeInvalid  OutcomeKind = "invalid"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeBusy     OutcomeKind = "busy"
)

// Outcome UpdatePhase 的结果
type Outcome struct {
	Phase      model.Phase         `json:"phase"`
	Kind       OutcomeKind         `json:"kind"`
	Results    []validation.Result `json:"results,omitempty"`
	Message    string              `json:"message,omitempty"`
	Missing    []model.FieldID     `json:"missing,omitempty"`
	Section    string              `json:"section,omitempty"`
	Next       *model.Phase        `json:"next,omitempty"`
	Completion model.Completion    `json:"completion"`

	err error
}

// OK 提交成功或已延后
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSubmitted || o.Kind == OutcomeDeferred
}

// Err 对应的业务错误，OK 时为 nil
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return o.err
}

func rejected(phase model.Phase, def errors.Definition, completion model.Completion) Outcome {
	return Outcome{
		Phase:      phase,
		Kind:       OutcomeInvalid,
		Results:    []validation.Result{{Valid: false, Message: def.Message}},
		Message:    def.Message,
		Completion: completion,
		err:        def,
	}
}

func invalidOutcome(phase model.Phase, results []validation.Result, message string, err error, completion model.Completion) Outcome {
	return Outcome{
		Phase:      phase,
		Kind:       OutcomeInvalid,
		Results:    results,
		Message:    message,
		Completion: completion,
		err:        err,
	}
}

func failed(phase model.Phase, err error, completion model.Completion) Outcome {
	return Outcome{
		Phase:      phase,
		Kind:       OutcomeFailed,
		Message:    err.Error(),
		Completion: completion,
		err:        err,
	}
}
