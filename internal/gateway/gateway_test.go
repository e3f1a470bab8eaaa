package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

type peer struct {
	mu       sync.Mutex
	requests []recorded
	handler  http.HandlerFunc
}

func (p *peer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	p.mu.Lock()
	p.requests = append(p.requests, recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: string(b)})
	p.mu.Unlock()
	p.handler(w, r)
}

func (p *peer) last() recorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newPeer(t *testing.T, h http.HandlerFunc) (*peer, *HTTPGateway) {
	t.Helper()
	p := &peer{handler: h}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	g, err := NewHTTPGateway(srv.URL, "token-1", WithTimeout(time.Second))
	require.NoError(t, err)
	return p, g
}

func TestFetchProfile(t *testing.T) {
	p, g := newPeer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"owner_id": "u1", "first_name": "Jane", "skills": []string{"Go"}},
		})
	})

	profile, err := g.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.Equal(t, []string{"Go"}, []string(profile.Skills))

	req := p.last()
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/v1/profile", req.path)
	assert.Equal(t, "Bearer token-1", req.auth)
}

func TestFetchCompletion(t *testing.T) {
	_, g := newPeer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": model.Completion{Phase1: true, Percentage: 33},
		})
	})

	c, err := g.FetchCompletion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Completion{Phase1: true, Percentage: 33}, c)
}

func TestSubmitPhaseSendsFields(t *testing.T) {
	p, g := newPeer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"additional_notes": "hello", "completion_percentage": 0},
		})
	})

	profile, err := g.SubmitPhase5(context.Background(), model.FieldSet{}.Set(model.FieldAdditionalNotes, "hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", profile.AdditionalNotes)

	req := p.last()
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/v1/profile/phases/5", req.path)
	assert.JSONEq(t, `{"fields":{"additional_notes":"hello"}}`, req.body)
}

func TestRemoteFailureIsVerbatim(t *testing.T) {
	_, g := newPeer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "VALIDATION_FAILED",
				"message": "Email is already registered",
				"details": map[string]interface{}{
					"fields": []map[string]interface{}{{"field": "email", "valid": false, "message": "Email is already registered"}},
				},
			},
		})
	})

	_, err := g.SubmitPhase1(context.Background(), model.FieldSet{}.Set(model.FieldEmail, "jane@example.com"))
	require.Error(t, err)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusUnprocessableEntity, f.Status)
	assert.Equal(t, "VALIDATION_FAILED", f.Code)
	assert.Equal(t, "Email is already registered", f.Error())
	require.Len(t, f.Fields, 1)
	assert.Equal(t, model.FieldEmail, f.Fields[0].Field)
}

func TestNonJSONFailure(t *testing.T) {
	_, g := newPeer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := g.FetchProfile(context.Background())
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusBadGateway, f.Status)
	assert.Equal(t, "profile service returned HTTP 502", f.Error())
}

func TestTimeoutIsUnavailable(t *testing.T) {
	p := &peer{handler: func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{}})
	}}
	srv := httptest.NewServer(p)
	defer srv.Close()

	g, err := NewHTTPGateway(srv.URL, "", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = g.FetchProfile(context.Background())
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, CodeUnavailable, f.Code)
}

func TestControllerSurfacesRemoteMessage(t *testing.T) {
	ctx := context.Background()
	_, g := newPeer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"owner_id": "u1"}})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": map[string]interface{}{"code": "INTERNAL_ERROR", "message": "Profile database is read-only"},
		})
	})

	c := onboarding.NewController(g, onboarding.NewDraftStore(onboarding.NewMemoryBackend(), "u1", nil))
	require.NoError(t, c.LoadProfile(ctx))

	out := c.UpdatePhase5(ctx, model.FieldSet{}.Set(model.FieldAdditionalNotes, "hello"))
	assert.Equal(t, onboarding.OutcomeFailed, out.Kind)
	assert.Equal(t, "Profile database is read-only", out.Message)
	assert.False(t, c.Completion().Phase5)
}

func TestControllerSurfacesRemoteFieldErrors(t *testing.T) {
	ctx := context.Background()
	_, g := newPeer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"owner_id": "u1"}})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "VALIDATION_FAILED",
				"message": "Additional notes contain a blocked link",
				"details": map[string]interface{}{
					"fields": []map[string]interface{}{{"field": "additional_notes", "valid": false, "message": "Links are not allowed"}},
				},
			},
		})
	})

	c := onboarding.NewController(g, onboarding.NewDraftStore(onboarding.NewMemoryBackend(), "u1", nil))
	require.NoError(t, c.LoadProfile(ctx))

	out := c.UpdatePhase5(ctx, model.FieldSet{}.Set(model.FieldAdditionalNotes, "see http://spam"))
	require.Equal(t, onboarding.OutcomeInvalid, out.Kind)
	assert.Equal(t, "Additional notes contain a blocked link", out.Message)
	require.Len(t, out.Results, 1)
	assert.Equal(t, model.FieldAdditionalNotes, out.Results[0].Field)
	assert.Equal(t, "Links are not allowed", out.Results[0].Message)
	assert.False(t, c.Completion().Phase5)
}

type stubBackend struct {
	owners    []string
	submitErr error
}

func (s *stubBackend) GetOrCreate(_ context.Context, owner string) (*model.Profile, error) {
	s.owners = append(s.owners, owner)
	return &model.Profile{OwnerID: owner}, nil
}

func (s *stubBackend) Completion(_ context.Context, owner string) (model.Completion, error) {
	s.owners = append(s.owners, owner)
	return model.Completion{}, nil
}

func (s *stubBackend) SubmitPhase(_ context.Context, owner string, _ model.Phase, fields model.FieldSet) (*model.Profile, error) {
	s.owners = append(s.owners, owner)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	p := &model.Profile{OwnerID: owner}
	return p, p.Apply(fields)
}

func TestLocalGatewayBindsOwner(t *testing.T) {
	ctx := context.Background()
	backend := &stubBackend{}
	g := NewLocalGateway(backend, "u9")

	_, err := g.FetchProfile(ctx)
	require.NoError(t, err)
	_, err = g.FetchCompletion(ctx)
	require.NoError(t, err)
	p, err := g.SubmitPhase(ctx, model.Phase5, model.FieldSet{}.Set(model.FieldAdditionalNotes, "x"))
	require.NoError(t, err)

	assert.Equal(t, "x", p.AdditionalNotes)
	assert.Equal(t, []string{"u9", "u9", "u9"}, backend.owners)
}

func TestLocalGatewayFieldErrorsAreInvalid(t *testing.T) {
	ctx := context.Background()
	backend := &stubBackend{submitErr: &validation.Error{Results: []validation.Result{
		{Field: model.FieldAdditionalNotes, Valid: false, Message: "Additional notes must be at most 500 words (currently 501)"},
	}}}

	c := onboarding.NewController(NewLocalGateway(backend, "u9"), onboarding.NewDraftStore(onboarding.NewMemoryBackend(), "u9", nil))
	require.NoError(t, c.LoadProfile(ctx))

	out := c.UpdatePhase5(ctx, model.FieldSet{}.Set(model.FieldAdditionalNotes, "short note"))
	require.Equal(t, onboarding.OutcomeInvalid, out.Kind)
	require.Len(t, out.Results, 1)
	assert.Equal(t, model.FieldAdditionalNotes, out.Results[0].Field)
	assert.Equal(t, "Additional notes must be at most 500 words (currently 501)", out.Message)
	assert.ErrorAs(t, out.Err(), new(*validation.Error))
}
