package handler

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/hertz/pkg/app"
	hconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/cache"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/middleware"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/service"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
)

const owner = "owner-1"

// fakeProfiles 进程内的资料服务，按与服务端相同的规则校验
type fakeProfiles struct {
	mu        sync.Mutex
	profiles  map[string]*model.Profile
	submitErr error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*model.Profile)}
}

func (f *fakeProfiles) get(owner string) *model.Profile {
	p, ok := f.profiles[owner]
	if !ok {
		p = &model.Profile{OwnerID: owner, PublicID: "p_" + owner}
		f.profiles[owner] = p
	}
	return p
}

func (f *fakeProfiles) GetOrCreate(_ context.Context, owner string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(owner).Clone(), nil
}

func (f *fakeProfiles) Completion(_ context.Context, owner string) (model.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return onboarding.Derive(f.get(owner)), nil
}

func (f *fakeProfiles) SubmitPhase(_ context.Context, owner string, phase model.Phase, fields model.FieldSet) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if results := validation.New().ValidatePhase(phase, fields); validation.Failed(results) {
		return nil, &validation.Error{Results: validation.Invalid(results)}
	}
	p := f.get(owner)
	if err := p.Apply(fields.Only(model.PhaseFields[phase])); err != nil {
		return nil, err
	}
	p.CompletionPercentage = onboarding.Derive(p).Percentage
	return p.Clone(), nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string                     `json:"code"`
		Message string                     `json:"message"`
		Details map[string]json.RawMessage `json:"details"`
	} `json:"error"`
}

type testServer struct {
	engine   *route.Engine
	profiles *fakeProfiles
	redis    *goredis.Client
	locker   *cache.Locker
}

func asOwner(id string) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if id != "" {
			c.Set(middleware.IdentityKey, id)
		}
		c.Next(ctx)
	}
}

func newTestServer(t *testing.T, identity string) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := &testServer{
		engine:   route.NewEngine(hconfig.NewOptions([]hconfig.Option{})),
		profiles: newFakeProfiles(),
		redis:    client,
		locker:   cache.NewLocker(client, time.Minute),
	}

	profiles := NewProfileHandler(s.profiles)
	flow := NewOnboardingHandler(s.profiles, cache.NewDraftCache(client, time.Hour), s.locker, nil)
	access := NewAccessHandler(service.NewAccessService(cache.NewCompletionCache(client), s.profiles))

	v1 := s.engine.Group("/v1", asOwner(identity))
	v1.GET("/profile", profiles.GetProfile)
	v1.GET("/profile/completion", profiles.GetCompletion)
	v1.PUT("/profile/phases/:phase", profiles.SubmitPhase)
	v1.GET("/onboarding/progress", flow.GetProgress)
	v1.POST("/onboarding/phases/:phase", flow.SubmitPhase)
	v1.GET("/onboarding/drafts/:phase", flow.GetDraft)
	v1.PUT("/onboarding/drafts/:phase", flow.SaveDraft)
	v1.GET("/access", access.ListAccess)
	v1.GET("/access/:feature", access.CheckAccess)
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var reqBody *ut.Body
	if body != "" {
		reqBody = &ut.Body{Body: strings.NewReader(body), Len: len(body)}
	}
	resp := ut.PerformRequest(s.engine, method, path, reqBody,
		ut.Header{Key: "Content-Type", Value: "application/json"}).Result()

	var env envelope
	if len(resp.Body()) > 0 {
		require.NoError(t, json.Unmarshal(resp.Body(), &env), string(resp.Body()))
	}
	return resp.StatusCode(), env
}

const (
	identityOnly = `{"fields":{"first_name":"Jane","last_name":"Doe"}}`
	fullPhase1   = `{"fields":{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","phone":"0788123456"}}`
)

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t, owner)

	status, env := s.do(t, http.MethodGet, "/v1/profile", "")
	require.Equal(t, http.StatusOK, status)
	var profile model.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, owner, profile.OwnerID)

	status, env = s.do(t, http.MethodPut, "/v1/profile/phases/1", fullPhase1)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, 33, profile.CompletionPercentage)

	status, env = s.do(t, http.MethodGet, "/v1/profile/completion", "")
	require.Equal(t, http.StatusOK, status)
	var completion model.Completion
	require.NoError(t, json.Unmarshal(env.Data, &completion))
	assert.True(t, completion.Phase1)
	assert.Equal(t, 33, completion.Percentage)
}

func TestProfileSubmitRejectsInvalidFields(t *testing.T) {
	s := newTestServer(t, owner)

	status, env := s.do(t, http.MethodPut, "/v1/profile/phases/1",
		`{"fields":{"first_name":"Jane","last_name":"Doe","email":"not-an-email","phone":"0788123456"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.ValidationFailed.Code, env.Error.Code)

	var fields []validation.Result
	require.NoError(t, json.Unmarshal(env.Error.Details["fields"], &fields))
	require.Len(t, fields, 1)
	assert.Equal(t, model.FieldEmail, fields[0].Field)

	status, env = s.do(t, http.MethodPut, "/v1/profile/phases/4", `{"fields":{}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errors.PhaseInvalid.Code, env.Error.Code)

	status, _ = s.do(t, http.MethodPut, "/v1/profile/phases/1", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnauthenticatedRequest(t *testing.T) {
	s := newTestServer(t, "")

	status, env := s.do(t, http.MethodGet, "/v1/onboarding/progress", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, errors.Unauthorized.Code, env.Error.Code)
}

func TestOnboardingDeferThenSubmit(t *testing.T) {
	s := newTestServer(t, owner)

	status, env := s.do(t, http.MethodPost, "/v1/onboarding/phases/1", identityOnly)
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, errors.PhaseDeferred.Code, env.Meta["code"])
	var out struct {
		Outcome   onboarding.OutcomeKind       `json:"outcome"`
		Missing   []model.FieldID              `json:"missing"`
		NextPhase *model.Phase                 `json:"next_phase"`
		Progress  model.OnboardingProgressData `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, onboarding.OutcomeDeferred, out.Outcome)
	assert.Equal(t, []model.FieldID{model.FieldPhone}, out.Missing)

	status, env = s.do(t, http.MethodGet, "/v1/onboarding/drafts/phase1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Jane")

	status, env = s.do(t, http.MethodGet, "/v1/onboarding/progress", "")
	require.Equal(t, http.StatusOK, status)
	var progress model.OnboardingProgressData
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Equal(t, model.PhaseStateDrafted, progress.Phases[0].State)

	status, env = s.do(t, http.MethodPost, "/v1/onboarding/phases/1", fullPhase1)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, onboarding.OutcomeSubmitted, out.Outcome)
	require.NotNil(t, out.NextPhase)
	assert.Equal(t, model.Phase2, *out.NextPhase)
	assert.Equal(t, 33, out.Progress.Percentage)

	status, env = s.do(t, http.MethodGet, "/v1/onboarding/drafts/1", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errors.DraftNotFound.Code, env.Error.Code)
}

func TestOnboardingRejectsLockedPhase(t *testing.T) {
	s := newTestServer(t, owner)

	status, env := s.do(t, http.MethodPost, "/v1/onboarding/phases/2",
		`{"fields":{"institution":"University of Rwanda"}}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, errors.PhaseLocked.Code, env.Error.Code)
	assert.Contains(t, env.Error.Details, "progress")
}

func TestOnboardingInvalidFields(t *testing.T) {
	s := newTestServer(t, owner)

	status, env := s.do(t, http.MethodPost, "/v1/onboarding/phases/1",
		`{"fields":{"first_name":"Jane","last_name":"Doe","email":"jane@","phone":"0788123456"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, errors.ValidationFailed.Code, env.Error.Code)
	assert.Contains(t, string(env.Error.Details["fields"]), `"email"`)

	// 校验失败不会写入资料
	completion, err := s.profiles.Completion(context.Background(), owner)
	require.NoError(t, err)
	assert.False(t, completion.Phase1)
}

func TestOnboardingBusyWhileLockHeld(t *testing.T) {
	s := newTestServer(t, owner)
	ctx := context.Background()

	lock, err := s.locker.TryLockSubmission(ctx, owner, model.Phase5)
	require.NoError(t, err)
	require.NotNil(t, lock)

	body := `{"fields":{"additional_notes":"Looking for a co-founder"}}`
	status, env := s.do(t, http.MethodPost, "/v1/onboarding/phases/5", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, errors.PhaseSubmissionInProgress.Code, env.Error.Code)

	require.NoError(t, lock.Unlock(ctx))
	status, _ = s.do(t, http.MethodPost, "/v1/onboarding/phases/5", body)
	assert.Equal(t, http.StatusOK, status)

	// 处理完成后锁已释放
	again, err := s.locker.TryLockSubmission(ctx, owner, model.Phase5)
	require.NoError(t, err)
	assert.NotNil(t, again)
}

func TestOnboardingSurfacesFailure(t *testing.T) {
	s := newTestServer(t, owner)
	s.profiles.submitErr = stderrors.New("profile database is read-only")

	status, env := s.do(t, http.MethodPost, "/v1/onboarding/phases/5", `{"fields":{"additional_notes":"hi"}}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, errors.PhaseSubmissionFailed.Code, env.Error.Code)
	assert.Equal(t, "profile database is read-only", env.Error.Message)
}

func TestAutosaveDraft(t *testing.T) {
	s := newTestServer(t, owner)

	status, env := s.do(t, http.MethodPut, "/v1/onboarding/drafts/5", `{"fields":{"additional_notes":"work in progress"}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, env.Meta["saved"])
	assert.Contains(t, string(env.Data), "work in progress")

	status, _ = s.do(t, http.MethodPost, "/v1/onboarding/phases/5", `{"fields":{"additional_notes":"final"}}`)
	require.Equal(t, http.StatusOK, status)

	// 阶段完成后自动保存不再写入
	status, env = s.do(t, http.MethodPut, "/v1/onboarding/drafts/5", `{"fields":{"additional_notes":"stale"}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, env.Meta["saved"])

	status, _ = s.do(t, http.MethodGet, "/v1/onboarding/drafts/5", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(t, http.MethodPut, "/v1/onboarding/drafts/4", `{"fields":{}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errors.PhaseInvalid.Code, env.Error.Code)
}

func TestAccessEndpoints(t *testing.T) {
	s := newTestServer(t, owner)

	status, env := s.do(t, http.MethodGet, "/v1/access", "")
	require.Equal(t, http.StatusOK, status)
	var list []service.Access
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 3)
	assert.True(t, list[0].Unlocked)

	status, env = s.do(t, http.MethodGet, "/v1/access/dashboard", "")
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/v1/access/messaging", "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, errors.FeatureLocked.Code, env.Error.Code)
	assert.JSONEq(t, "67", string(env.Error.Details["required_percentage"]))

	status, env = s.do(t, http.MethodGet, "/v1/access/billing", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errors.FeatureUnknown.Code, env.Error.Code)
}

func TestProbes(t *testing.T) {
	engine := route.NewEngine(hconfig.NewOptions([]hconfig.Option{}))
	healthy := true
	engine.GET("/healthz", Health)
	engine.GET("/readyz", Ready(func(context.Context) error {
		if healthy {
			return nil
		}
		return stderrors.New("redis: connection refused")
	}))

	resp := ut.PerformRequest(engine, http.MethodGet, "/healthz", nil).Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	resp = ut.PerformRequest(engine, http.MethodGet, "/readyz", nil).Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "ready")

	healthy = false
	resp = ut.PerformRequest(engine, http.MethodGet, "/readyz", nil).Result()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	assert.NotContains(t, string(resp.Body()), "connection refused")
}
