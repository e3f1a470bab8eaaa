package model

// PhaseProgress 单个阶段的导航状态
type PhaseProgress struct {
	Phase    Phase      `json:"phase"`
	Key      string     `json:"key"`
	State    PhaseState `json:"state"`
	Locked   bool       `json:"locked"`
	Complete bool       `json:"complete"`
	Required bool       `json:"required"`
}

// OnboardingProgressData 表示引导进度接口的响应数据。
type OnboardingProgressData struct {
	CurrentPhase *Phase          `json:"current_phase,omitempty"` // 全部完成时为空
	Percentage   int             `json:"percentage"`
	Phases       []PhaseProgress `json:"phases"`
}
