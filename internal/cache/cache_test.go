package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte("v"))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	defer c.Stop()

	c.Set("k", []byte("v"))
	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire after the TTL")
}

func TestLastWriterWins(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("k", []byte("first"))
	c.Set("k", []byte("second"))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)
}

func TestClearAndStats(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Get("a")
	c.Get("nope")

	s := c.Stats()
	assert.Equal(t, 2, s.Entries)
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)

	c.Clear()
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestKeyStability(t *testing.T) {
	a := Key("nrr", map[string]string{"team": "Alpha", "season": "2024"})
	b := Key("nrr", map[string]string{"season": "2024", "team": "Alpha"})
	assert.Equal(t, a, b, "parameter order must not change the key")

	c := Key("nrr", map[string]string{"team": "Alpha", "season": "2023"})
	assert.NotEqual(t, a, c)

	d := Key("nrr", map[string]string{"team": "Alpha", "season": "2024", "venue": ""})
	assert.Equal(t, a, d, "empty parameters are ignored")
}
