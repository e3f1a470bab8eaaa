package dto

import (
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
)

// ========== 引导流程 DTO ==========

// PhaseOutcomeData 阶段提交结果
type PhaseOutcomeData struct {
	Phase     model.Phase                  `json:"phase"`
	Outcome   onboarding.OutcomeKind       `json:"outcome"`
	Message   string                       `json:"message,omitempty"`
	Missing   []model.FieldID              `json:"missing,omitempty"`
	Section   string                       `json:"section,omitempty"`
	NextPhase *model.Phase                 `json:"next_phase,omitempty"`
	Progress  model.OnboardingProgressData `json:"progress"`
	Results   []validation.Result          `json:"results,omitempty"`
}

// NewPhaseOutcomeData 由控制器结果与提交后的导航状态组装
func NewPhaseOutcomeData(out onboarding.Outcome, nav onboarding.Navigation) PhaseOutcomeData {
	return PhaseOutcomeData{
		Phase:     out.Phase,
		Outcome:   out.Kind,
		Message:   out.Message,
		Missing:   out.Missing,
		Section:   out.Section,
		NextPhase: out.Next,
		Progress:  nav.Progress(),
		Results:   out.Results,
	}
}
