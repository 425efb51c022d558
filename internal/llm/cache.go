package llm

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// decisionCache remembers model answers per transaction fingerprint.
type decisionCache struct {
	store *gocache.Cache
}

// newDecisionCache creates a cache with the given TTL. A negative TTL disables caching.
func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl < 0 {
		return &decisionCache{}
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &decisionCache{store: gocache.New(ttl, ttl/2)}
}

func (c *decisionCache) get(key string) (model.Decision, bool) {
	if c.store == nil {
		return model.Decision{}, false
	}
	v, ok := c.store.Get(key)
	if !ok {
		return model.Decision{}, false
	}
	d, ok := v.(model.Decision)
	return d, ok
}

func (c *decisionCache) set(key string, d model.Decision) {
	if c.store == nil {
		return
	}
	c.store.SetDefault(key, d)
}
