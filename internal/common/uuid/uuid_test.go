package uuid

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsTimeOrdered(t *testing.T) {
	before := time.Now().Add(-time.Second)
	a := New()
	b := New()
	assert.Equal(t, uuid.Version(7), a.Version())
	assert.True(t, a.String() < b.String() || a == b)
	assert.WithinRange(t, Timestamp(a), before, time.Now().Add(time.Second))

	parsed, err := Parse(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}
