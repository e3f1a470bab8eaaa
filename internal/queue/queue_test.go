package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/cache"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/mq"
)

type stubProfiles struct {
	completion model.Completion
	err        error
	calls      int
}

func (s *stubProfiles) Completion(context.Context, string) (model.Completion, error) {
	s.calls++
	return s.completion, s.err
}

type recordingCache struct {
	entries map[string]model.Completion
}

func (r *recordingCache) Set(_ context.Context, owner string, c model.Completion) error {
	r.entries[owner] = c
	return nil
}

func newHandler(t *testing.T, profiles *stubProfiles) (*CompletionChangedHandler, *recordingCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	written := &recordingCache{entries: map[string]model.Completion{}}
	return NewCompletionChangedHandler(profiles, written, cache.NewMessageMarker(client), nil), written, s
}

func body(t *testing.T, msg model.CompletionChangedMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestHandleRefreshesCache(t *testing.T) {
	ctx := context.Background()
	profiles := &stubProfiles{completion: model.Completion{Phase1: true, Phase2: true, Phase3: true, Percentage: 100}}
	h, written, _ := newHandler(t, profiles)

	msg := model.CompletionChangedMessage{MessageID: "cc_1", OwnerID: "u1", PreviousPercentage: 67, Percentage: 100}
	require.NoError(t, h.Handle(ctx, body(t, msg)))

	assert.Equal(t, 100, written.entries["u1"].Percentage)
}

func TestHandleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	profiles := &stubProfiles{completion: model.Completion{Percentage: 33}}
	h, _, _ := newHandler(t, profiles)
	msg := body(t, model.CompletionChangedMessage{MessageID: "cc_2", OwnerID: "u1", Percentage: 33})

	require.NoError(t, h.Handle(ctx, msg))

	err := h.Handle(ctx, msg)
	var skip *errors.SkipMessageError
	assert.True(t, stderrors.As(err, &skip))
	assert.Equal(t, 1, profiles.calls)
}

func TestHandleFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	profiles := &stubProfiles{err: stderrors.New("db down")}
	h, written, s := newHandler(t, profiles)
	msg := body(t, model.CompletionChangedMessage{MessageID: "cc_3", OwnerID: "u1", Percentage: 33})

	err := h.Handle(ctx, msg)
	require.Error(t, err)
	var skip *errors.SkipMessageError
	assert.False(t, stderrors.As(err, &skip))
	assert.False(t, s.Exists("incub:message:processed:cc_3"))

	profiles.err = nil
	profiles.completion = model.Completion{Phase1: true, Percentage: 33}
	require.NoError(t, h.Handle(ctx, msg))
	assert.Equal(t, 33, written.entries["u1"].Percentage)
}

func TestHandleSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	h, _, _ := newHandler(t, &stubProfiles{})

	var skip *errors.SkipMessageError
	assert.True(t, stderrors.As(h.Handle(ctx, []byte("{")), &skip))
	assert.True(t, stderrors.As(h.Handle(ctx, []byte(`{"owner_id":"u1"}`)), &skip))
}

func TestProducerAssignsMessageID(t *testing.T) {
	var (
		gotExchange, gotKey, gotID string
		gotBody                    interface{}
	)
	p := &Producer{publish: func(_ context.Context, exchange, routingKey, messageID string, b interface{}) error {
		gotExchange, gotKey, gotID, gotBody = exchange, routingKey, messageID, b
		return nil
	}}

	msg := model.CompletionChangedMessage{OwnerID: "u1", Percentage: 33, OccurredAt: time.Now().Format(time.RFC3339)}
	require.NoError(t, p.PublishCompletionChanged(context.Background(), msg))

	assert.Equal(t, mq.EventsExchange, gotExchange)
	assert.Equal(t, mq.CompletionChangedRoutingKey, gotKey)
	assert.Regexp(t, `^cc_[0-9a-f-]{36}$`, gotID)

	sent, ok := gotBody.(model.CompletionChangedMessage)
	require.True(t, ok)
	assert.Equal(t, gotID, sent.MessageID)
}

func TestProducerReturnsPublishError(t *testing.T) {
	p := &Producer{publish: func(context.Context, string, string, string, interface{}) error {
		return stderrors.New("channel closed")
	}}
	assert.Error(t, p.PublishCompletionChanged(context.Background(), model.CompletionChangedMessage{OwnerID: "u1"}))
}
