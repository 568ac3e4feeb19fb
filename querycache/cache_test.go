package querycache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-blog-admin/querycache"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestGetSetExpiry(t *testing.T) {
	clk := &clock{now: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := querycache.New(time.Minute, querycache.WithNowTime(clk.Now))
	defer c.Close()

	_, ok := c.Get("blogs:list")
	require.False(t, ok)

	c.Set("blogs:list", 42)
	v, ok := c.Get("blogs:list")
	require.True(t, ok)
	require.Equal(t, 42, v)

	clk.Advance(2 * time.Minute)
	_, ok = c.Get("blogs:list")
	require.False(t, ok)
	require.Zero(t, c.Len())
}

func TestInvalidatePrefixAndClear(t *testing.T) {
	c := querycache.New(time.Minute)
	defer c.Close()

	c.Set("blogs:list:page=1", 1)
	c.Set("blogs:get:b1", 2)
	c.Set("admins:list", 3)

	c.InvalidatePrefix("blogs")
	_, ok := c.Get("blogs:get:b1")
	require.False(t, ok)
	_, ok = c.Get("admins:list")
	require.True(t, ok)

	c.Clear()
	require.Zero(t, c.Len())

	c.Close()
	c.Close()
}
