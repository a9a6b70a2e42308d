package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ExpiraPorTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewMemory(clock)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "analytics:alerts", []byte(`{"alerts":[]}`), time.Minute))
	b, ok, err := m.Get(ctx, "analytics:alerts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"alerts":[]}`, string(b))

	clock.Advance(time.Minute)
	_, ok, err = m.Get(ctx, "analytics:alerts")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(), "la entrada vencida se purga al leer")
}

func TestMemory_TTLNoPositivoNoGuarda(t *testing.T) {
	m := NewMemory(nil)
	require.NoError(t, m.Set(context.Background(), "k", []byte("v"), 0))
	assert.Equal(t, 0, m.Len())
}

func TestMemory_DeletePrefix(t *testing.T) {
	m := NewMemory(clockwork.NewFakeClock())
	ctx := context.Background()
	for _, k := range []string{"analytics:a", "analytics:b", "otro:c"} {
		require.NoError(t, m.Set(ctx, k, []byte("x"), time.Hour))
	}

	require.NoError(t, m.DeletePrefix(ctx, "analytics:"))
	assert.Equal(t, 1, m.Len())
	_, ok, _ := m.Get(ctx, "otro:c")
	assert.True(t, ok)
}
