package model

// Completion 由资料推导出的各阶段完成情况，不单独存储
type Completion struct {
	Phase1     bool `json:"phase1"`
	Phase2     bool `json:"phase2"`
	Phase3     bool `json:"phase3"`
	Phase5     bool `json:"phase5"`
	Percentage int  `json:"percentage"`
}

// Done 阶段是否完成；不在流程内的阶段始终为 false
func (c Completion) Done(phase Phase) bool {
	switch phase {
	case Phase1:
		return c.Phase1
	case Phase2:
		return c.Phase2
	case Phase3:
		return c.Phase3
	case Phase5:
		return c.Phase5
	default:
		return false
	}
}

// With 返回标记了指定阶段完成状态的副本（不重算百分比）
func (c Completion) With(phase Phase, done bool) Completion {
	switch phase {
	case Phase1:
		c.Phase1 = done
	case Phase2:
		c.Phase2 = done
	case Phase3:
		c.Phase3 = done
	case Phase5:
		c.Phase5 = done
	}
	return c
}

// CompletedRequired 已完成的必填阶段数
func (c Completion) CompletedRequired() int {
	n := 0
	for _, phase := range RequiredPhases {
		if c.Done(phase) {
			n++
		}
	}
	return n
}
