package discovery

import (
	"sync"
	"time"
)

// Cooldown deduplicates candidate events by pair key: the first event
// for a key is admitted, every later event for the same key is dropped
// until the window elapses. Keys fall back to the mint when no pair
// address is known, so the same guarantee holds either way.
type Cooldown struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewCooldown creates a cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window:   window,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

// Admit reports whether an event for the given key may proceed, and if
// so starts (or restarts) the key's cooldown window.
func (c *Cooldown) Admit(key string) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, seen := c.lastSeen[key]; seen && now.Sub(last) < c.window {
		return false
	}
	c.lastSeen[key] = now

	// Opportunistic prune keeps the map bounded on long runs.
	if len(c.lastSeen) > 4096 {
		for k, at := range c.lastSeen {
			if now.Sub(at) >= c.window {
				delete(c.lastSeen, k)
			}
		}
	}
	return true
}
