package gateway

import (
	"context"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
)

// ProfileBackend 进程内的资料服务，生产实现为 service.ProfileService
type ProfileBackend interface {
	GetOrCreate(ctx context.Context, owner string) (*model.Profile, error)
	Completion(ctx context.Context, owner string) (model.Completion, error)
	SubmitPhase(ctx context.Context, owner string, phase model.Phase, fields model.FieldSet) (*model.Profile, error)
}

// LocalGateway 绑定单个用户的进程内网关，HTTP 接口为每个请求创建一个
type LocalGateway struct {
	backend ProfileBackend
	owner   string
}

func NewLocalGateway(backend ProfileBackend, owner string) *LocalGateway {
	return &LocalGateway{backend: backend, owner: owner}
}

func (g *LocalGateway) FetchProfile(ctx context.Context) (*model.Profile, error) {
	return g.backend.GetOrCreate(ctx, g.owner)
}

func (g *LocalGateway) FetchCompletion(ctx context.Context) (model.Completion, error) {
	return g.backend.Completion(ctx, g.owner)
}

func (g *LocalGateway) SubmitPhase(ctx context.Context, phase model.Phase, fields model.FieldSet) (*model.Profile, error) {
	return g.backend.SubmitPhase(ctx, g.owner, phase, fields)
}
