package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key([]byte("same bytes"))
	b := Key([]byte("same bytes"))
	c := Key([]byte("other bytes"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "predict:")
}

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	_, ok := m.Get(ctx, "missing")
	assert.False(t, ok)

	m.Set(ctx, "k", []byte("v"))
	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"))
	time.Sleep(20 * time.Millisecond)

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryBounded(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	for i := 0; i < defaultMaxEntries+10; i++ {
		m.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"))
	}

	m.mu.Lock()
	size := len(m.entries)
	m.mu.Unlock()
	assert.LessOrEqual(t, size, defaultMaxEntries+1)
}
