package onboarding

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
)

// DraftBackend 草稿的存储介质。GetDraft 在草稿不存在时返回 (nil, nil)
type DraftBackend interface {
	PutDraft(ctx context.Context, owner string, phase model.Phase, data []byte) error
	GetDraft(ctx context.Context, owner string, phase model.Phase) ([]byte, error)
	DeleteDraft(ctx context.Context, owner string, phase model.Phase) error
}

// DraftStore 单个用户的本地草稿。所有方法都不向调用方返回错误：
// 介质故障只记录日志和指标，丢草稿可以重填，流程不能因此中断。
type DraftStore struct {
	backend  DraftBackend
	owner    string
	recorder Recorder
}

// NewDraftStore 创建绑定到 owner 的草稿存储
func NewDraftStore(backend DraftBackend, owner string, recorder Recorder) *DraftStore {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &DraftStore{backend: backend, owner: owner, recorder: recorder}
}

// Owner 草稿所属用户
func (s *DraftStore) Owner() string {
	return s.owner
}

// Save 覆盖写入阶段草稿。空白字段会保留下来，表示提交时清空该字段；没有任何字段时等同于 Clear
func (s *DraftStore) Save(ctx context.Context, phase model.Phase, fields model.FieldSet) {
	fields = fields.Compact()
	if len(fields) == 0 {
		s.Clear(ctx, phase)
		return
	}

	data, err := json.Marshal(fields)
	if err != nil {
		s.fail(ctx, "save", phase, err)
		return
	}
	if err := s.backend.PutDraft(ctx, s.owner, phase, data); err != nil {
		s.fail(ctx, "save", phase, err)
	}
}

// Load 读取阶段草稿；不存在或读取失败时返回 nil
func (s *DraftStore) Load(ctx context.Context, phase model.Phase) model.FieldSet {
	data, err := s.backend.GetDraft(ctx, s.owner, phase)
	if err != nil {
		s.fail(ctx, "load", phase, err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var fields model.FieldSet
	if err := json.Unmarshal(data, &fields); err != nil {
		s.fail(ctx, "decode", phase, err)
		return nil
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Clear 删除阶段草稿
func (s *DraftStore) Clear(ctx context.Context, phase model.Phase) {
	if err := s.backend.DeleteDraft(ctx, s.owner, phase); err != nil {
		s.fail(ctx, "clear", phase, err)
	}
}

func (s *DraftStore) fail(ctx context.Context, op string, phase model.Phase, err error) {
	s.recorder.RecordDraftFailure(ctx, op)
	logger.Logger.Warn("Draft store operation failed",
		zap.String("op", op),
		zap.String("owner_id", s.owner),
		zap.String("phase", phase.Key()),
		zap.Error(err),
	)
}

// MemoryBackend 进程内草稿存储，用于测试和一次性会话
type MemoryBackend struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{drafts: make(map[string][]byte)}
}

func memoryKey(owner string, phase model.Phase) string {
	return owner + "/" + phase.Key()
}

func (m *MemoryBackend) PutDraft(_ context.Context, owner string, phase model.Phase, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[memoryKey(owner, phase)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) GetDraft(_ context.Context, owner string, phase model.Phase) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.drafts[memoryKey(owner, phase)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) DeleteDraft(_ context.Context, owner string, phase model.Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, memoryKey(owner, phase))
	return nil
}
