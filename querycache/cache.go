package querycache

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const cleanupInterval = time.Minute

type entry struct {
	data      any
	expiresAt time.Time
}

// Cache holds query results keyed by string until they expire or are invalidated.
type Cache struct {
	store   sync.Map
	ttl     time.Duration
	nowTime func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type Option func(*Cache)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Cache) {
		c.nowTime = nowFunc
	}
}

func New(ttl time.Duration, options ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		nowTime: time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	go c.startCleanup()
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		log.Debug().Str("key", key).Msg("cache miss")
		return nil, false
	}

	e := val.(entry)
	if c.nowTime().After(e.expiresAt) {
		c.store.Delete(key)
		log.Debug().Str("key", key).Msg("cache expired")
		return nil, false
	}

	log.Debug().Str("key", key).Msg("cache hit")
	return e.data, true
}

func (c *Cache) Set(key string, value any) {
	c.store.Store(key, entry{
		data:      value,
		expiresAt: c.nowTime().Add(c.ttl),
	})
}

// InvalidatePrefix drops every key that starts with prefix, e.g. "blogs" after a post is edited.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.store.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.store.Delete(key)
		}
		return true
	})
	log.Debug().Str("prefix", prefix).Msg("cache invalidated")
}

func (c *Cache) Clear() {
	c.store.Clear()
}

func (c *Cache) Len() int {
	n := 0
	c.store.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) startCleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := c.nowTime()
			c.store.Range(func(key, val any) bool {
				if now.After(val.(entry).expiresAt) {
					c.store.Delete(key)
				}
				return true
			})
		}
	}
}
