package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestKeyOf(t *testing.T) {
	assert.Equal(t, "", keyOf([]interface{}{"ping"}))
	assert.Equal(t, "", keyOf([]interface{}{"get", "plain"}))
	assert.Equal(t, "incub:completion:u1", keyOf([]interface{}{"get", "incub:completion:u1"}))
	assert.Equal(t, "incub:draft:u1:***", keyOf([]interface{}{"get", "incub:draft:u1:phase2"}))
	assert.Equal(t, "", keyOf([]interface{}{"get", 42}))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, "success", statusOf(nil))
	assert.Equal(t, "not_found", statusOf(redis.Nil))
	assert.Equal(t, "error", statusOf(errors.New("boom")))
}

func TestProcessHookPassesThrough(t *testing.T) {
	h := NewTracingHook("test", 0)
	cmd := redis.NewStringCmd(context.Background(), "get", "incub:draft:u1:phase1")

	called := false
	err := h.ProcessHook(func(ctx context.Context, c redis.Cmder) error {
		called = true
		return redis.Nil
	})(context.Background(), cmd)

	assert.True(t, called)
	assert.ErrorIs(t, err, redis.Nil)
}
