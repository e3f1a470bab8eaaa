package onboarding

import (
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
)

// Navigation 基于完成度快照的阶段导航决策，值类型，可以随意复制
type Navigation struct {
	Completion model.Completion
	// Drafts 本地存有草稿的阶段
	Drafts map[model.Phase]bool
}

// NewNavigation 创建导航快照
func NewNavigation(c model.Completion, drafts map[model.Phase]bool) Navigation {
	cp := make(map[model.Phase]bool, len(drafts))
	for phase, ok := range drafts {
		if ok {
			cp[phase] = true
		}
	}
	return Navigation{Completion: c, Drafts: cp}
}

// IsComplete 阶段是否完成
func (n Navigation) IsComplete(phase model.Phase) bool {
	return n.Completion.Done(phase)
}

// IsLocked Phase1 和 Phase5 永不锁定；Phase2、Phase3 在前一阶段完成前锁定。
// 不在流程内的阶段不适用锁定，返回 false
func (n Navigation) IsLocked(phase model.Phase) bool {
	switch phase {
	case model.Phase2:
		return !n.Completion.Done(model.Phase1)
	case model.Phase3:
		return !n.Completion.Done(model.Phase2)
	default:
		return false
	}
}

// State 阶段当前状态
func (n Navigation) State(phase model.Phase) model.PhaseState {
	switch {
	case !phase.Valid():
		return model.PhaseStateNotInFlow
	case n.IsComplete(phase):
		return model.PhaseStateComplete
	case n.IsLocked(phase):
		return model.PhaseStateLocked
	case n.Drafts[phase]:
		return model.PhaseStateDrafted
	default:
		return model.PhaseStateUnlocked
	}
}

// Current 第一个未完成且未锁定的阶段；全部完成时返回 false
func (n Navigation) Current() (model.Phase, bool) {
	for _, phase := range model.Sequence {
		if !n.IsComplete(phase) && !n.IsLocked(phase) {
			return phase, true
		}
	}
	return 0, false
}

// Progress 所有阶段的状态列表，按流程顺序
func (n Navigation) Progress() model.OnboardingProgressData {
	data := model.OnboardingProgressData{
		Percentage: n.Completion.Percentage,
		Phases:     make([]model.PhaseProgress, 0, len(model.Sequence)),
	}
	if current, ok := n.Current(); ok {
		data.CurrentPhase = &current
	}
	for _, phase := range model.Sequence {
		data.Phases = append(data.Phases, model.PhaseProgress{
			Phase:    phase,
			Key:      phase.Key(),
			State:    n.State(phase),
			Locked:   n.IsLocked(phase),
			Complete: n.IsComplete(phase),
			Required: phase.Required(),
		})
	}
	return data
}

// NextPhaseAfter 按流程顺序返回下一阶段：1→2，2→3，3→5；最后一个阶段或不在流程内返回 false
func NextPhaseAfter(phase model.Phase) (model.Phase, bool) {
	for i, p := range model.Sequence {
		if p == phase && i+1 < len(model.Sequence) {
			return model.Sequence[i+1], true
		}
	}
	return 0, false
}
