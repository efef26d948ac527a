package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_Generate(t *testing.T) {
	t.Parallel()

	gen, err := NewSnowflake(1)
	require.NoError(t, err)

	prev := gen.Generate()
	for range 100 {
		next := gen.Generate()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestNewSnowflake_InvalidNode(t *testing.T) {
	t.Parallel()

	_, err := NewSnowflake(4096)
	assert.Error(t, err)
}

func TestUUID_Generate(t *testing.T) {
	t.Parallel()

	id := NewUUID().Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
