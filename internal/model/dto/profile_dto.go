package dto

import (
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
)

// ========== 资料服务 DTO ==========

// SubmitPhaseRequest 阶段提交请求，资料服务与引导接口共用
type SubmitPhaseRequest struct {
	Fields model.FieldSet `json:"fields"`
}

// SaveDraftRequest 自动保存请求
type SaveDraftRequest struct {
	Fields model.FieldSet `json:"fields"`
}

// DraftData 草稿数据
type DraftData struct {
	Phase  model.Phase    `json:"phase"`
	Key    string         `json:"key"`
	Fields model.FieldSet `json:"fields"`
}
