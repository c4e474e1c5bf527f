package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func TestTTLCacheExpiresEntries(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache(Config{TTL: time.Minute, Now: clock.Now})

	c.Set("k", Entry{Value: json.RawMessage(`{"a":1}`), Source: "serpapi"})

	entry, ok := c.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(entry.Value))
	assert.Equal(t, "serpapi", entry.Source)

	clock.now = clock.now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheEvictsOldestWhenFull(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache(Config{TTL: time.Hour, MaxEntries: 2, Now: clock.Now})

	c.Set("first", Entry{Value: json.RawMessage(`1`)})
	clock.now = clock.now.Add(time.Second)
	c.Set("second", Entry{Value: json.RawMessage(`2`)})
	clock.now = clock.now.Add(time.Second)
	c.Set("second", Entry{Value: json.RawMessage(`22`)})
	assert.Equal(t, 2, c.Len())

	c.Set("third", Entry{Value: json.RawMessage(`3`)})

	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestTTLCacheReturnsCopies(t *testing.T) {
	c := NewTTLCache(Config{})
	value := json.RawMessage(`"x"`)
	c.Set("k", Entry{Value: value})
	value[1] = 'y'

	entry, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, `"x"`, string(entry.Value))
}

func TestKeyNormalizes(t *testing.T) {
	assert.Equal(t, Key("  Best   Broker ", "TW"), Key("best broker", "tw"))
	assert.NotEqual(t, Key("a", "b"), Key("a b"))
}
