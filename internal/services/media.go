package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMediaTTL bounds how long unfetched outbound media lingers.
const DefaultMediaTTL = 10 * time.Minute

// MediaItem is one cached outbound file.
type MediaItem struct {
	Data        []byte
	ContentType string
	FileName    string
	expiresAt   time.Time
}

// MediaCache holds outbound media bytes until the transport provider has
// fetched them. Entries are keyed by an unguessable token and evicted
// after a TTL, so deleting the on-disk transient file never races the
// provider's fetch.
type MediaCache struct {
	entries map[string]*MediaItem
	mu      sync.RWMutex
	ttl     time.Duration
	done    chan struct{}
}

// NewMediaCache creates a media cache and starts its eviction routine.
func NewMediaCache(ttl time.Duration) *MediaCache {
	if ttl <= 0 {
		ttl = DefaultMediaTTL
	}
	c := &MediaCache{
		entries: make(map[string]*MediaItem),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.evictExpired()
	return c
}

// Add caches the given bytes and returns the token to serve them under.
func (c *MediaCache) Add(data []byte, contentType, fileName string) string {
	token := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = &MediaItem{
		Data:        data,
		ContentType: contentType,
		FileName:    fileName,
		expiresAt:   time.Now().Add(c.ttl),
	}
	return token
}

// Get returns the cached item for token, if it exists and has not expired.
func (c *MediaCache) Get(token string) (*MediaItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.entries[token]
	if !exists || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item, true
}

// Len returns the number of cached entries (for monitoring).
func (c *MediaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the eviction routine.
func (c *MediaCache) Stop() {
	close(c.done)
}

func (c *MediaCache) evictExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for token, item := range c.entries {
				if now.After(item.expiresAt) {
					delete(c.entries, token)
				}
			}
			c.mu.Unlock()
		}
	}
}
