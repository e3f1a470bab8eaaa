package snowflake

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsOutOfRange(t *testing.T) {
	assert.Error(t, Init(32, 1))
	assert.Error(t, Init(1, -1))
}

func TestNextPublicID(t *testing.T) {
	require.NoError(t, Init(3, 2))
	require.NoError(t, Init(4, 4))

	first, err := NextPublicID()
	require.NoError(t, err)
	second, err := NextPublicID()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	n, err := strconv.ParseInt(first, 10, 64)
	require.NoError(t, err)
	assert.Positive(t, n)

	id, err := NextID()
	require.NoError(t, err)
	assert.Greater(t, id, n)
}
