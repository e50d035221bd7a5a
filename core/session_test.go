package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateRoundTrip(t *testing.T) {
	s := NewSession("s1")
	assert.Equal(t, "s1", s.ID())

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("key", "value")
	v, ok := s.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	s.Delete("key")
	_, ok = s.Get("key")
	assert.False(t, ok)
}

func TestSessionSnapshotIsCopy(t *testing.T) {
	s := NewSession("s1")
	s.Set("a", 1)

	snap := s.Snapshot()
	snap["a"] = 99
	snap["b"] = 2

	v, _ := s.Get("a")
	assert.Equal(t, 1, v)
	_, ok := s.Get("b")
	assert.False(t, ok)
}

func TestSessionConcurrentAccess(t *testing.T) {
	s := NewSession("s1")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Set("shared", n)
			s.Get("shared")
			s.Snapshot()
		}(i)
	}
	wg.Wait()

	_, ok := s.Get("shared")
	assert.True(t, ok)
}
