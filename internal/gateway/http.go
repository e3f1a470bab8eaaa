package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model/dto"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
)

const defaultTimeout = 10 * time.Second

// HTTPGateway 通过 /v1/profile 接口访问资料服务；不重试，超时按单次调用计算
type HTTPGateway struct {
	client  *client.Client
	baseURL string
	token   string
	timeout time.Duration
}

type HTTPOption func(*HTTPGateway)

func WithTimeout(d time.Duration) HTTPOption {
	return func(g *HTTPGateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewHTTPGateway token 为门户签发的 access token
func NewHTTPGateway(baseURL, token string, opts ...HTTPOption) (*HTTPGateway, error) {
	g := &HTTPGateway{baseURL: baseURL, token: token, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(g)
	}

	c, err := client.NewClient(client.WithDialTimeout(g.timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile client: %w", err)
	}
	c.Use(hertztracing.ClientMiddleware())
	g.client = c
	return g, nil
}

func (g *HTTPGateway) FetchProfile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	if err := g.do(ctx, consts.MethodGet, "/v1/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *HTTPGateway) FetchCompletion(ctx context.Context) (model.Completion, error) {
	var c model.Completion
	err := g.do(ctx, consts.MethodGet, "/v1/profile/completion", nil, &c)
	return c, err
}

func (g *HTTPGateway) SubmitPhase(ctx context.Context, phase model.Phase, fields model.FieldSet) (*model.Profile, error) {
	var p model.Profile
	path := "/v1/profile/phases/" + strconv.Itoa(int(phase))
	if err := g.do(ctx, consts.MethodPut, path, dto.SubmitPhaseRequest{Fields: fields}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *HTTPGateway) SubmitPhase1(ctx context.Context, fields model.FieldSet) (*model.Profile, error) {
	return g.SubmitPhase(ctx, model.Phase1, fields)
}

func (g *HTTPGateway) SubmitPhase2(ctx context.Context, fields model.FieldSet) (*model.Profile, error) {
	return g.SubmitPhase(ctx, model.Phase2, fields)
}

func (g *HTTPGateway) SubmitPhase3(ctx context.Context, fields model.FieldSet) (*model.Profile, error) {
	return g.SubmitPhase(ctx, model.Phase3, fields)
}

func (g *HTTPGateway) SubmitPhase5(ctx context.Context, fields model.FieldSet) (*model.Profile, error) {
	return g.SubmitPhase(ctx, model.Phase5, fields)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields []validation.Result `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, dest interface{}) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetRequestURI(g.baseURL + path)
	req.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBody(b)
	}

	if err := g.client.DoTimeout(ctx, req, resp, g.timeout); err != nil {
		return &Failure{Code: CodeUnavailable, Message: "Profile service unavailable: " + err.Error()}
	}

	status := resp.StatusCode()
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if status >= consts.StatusBadRequest {
			return &Failure{Status: status}
		}
		return fmt.Errorf("failed to decode profile service response: %w", err)
	}

	if status >= consts.StatusBadRequest || env.Error != nil {
		f := &Failure{Status: status}
		if env.Error != nil {
			f.Code = env.Error.Code
			f.Message = env.Error.Message
			f.Fields = env.Error.Details.Fields
		}
		return f
	}

	if dest == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("failed to decode profile service response: %w", err)
	}
	return nil
}
