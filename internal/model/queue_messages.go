package model

// CompletionChangedMessage 资料完成度变化事件，worker 消费后刷新功能开关缓存
type CompletionChangedMessage struct {
	MessageID          string `json:"message_id"`
	OwnerID            string `json:"owner_id"`
	ProfileID          string `json:"profile_id"`
	Phase              Phase  `json:"phase"`
	PreviousPercentage int    `json:"previous_percentage"`
	Percentage         int    `json:"percentage"`
	OccurredAt         string `json:"occurred_at"`
}
