package uuid

import (
	"testing"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNanoIDGenerator(t *testing.T) {
	g := NewNanoIDGenerator(12)
	a, err := g.Generate()
	require.NoError(t, err)
	b, err := g.Generate()
	require.NoError(t, err)
	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)

	assert.Panics(t, func() { NewNanoIDGenerator(0) })
}

func TestRandomUUIDGenerator(t *testing.T) {
	id, err := RandomUUIDGenerator{}.Generate()
	require.NoError(t, err)
	parsed, err := guuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, guuid.Version(4), parsed.Version())
}
