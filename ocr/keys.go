package ocr

import (
	"sync"
	"time"
)

// KeyManager rotates API keys round-robin. A key marked failed is skipped
// until its cooldown expires; when every key is cooling down the least
// recently failed one is used anyway.
type KeyManager struct {
	mu       sync.Mutex
	keys     []string
	next     int
	cooldown time.Duration
	failedAt map[string]time.Time
	now      func() time.Time
}

// NewKeyManager creates a key manager over keys.
func NewKeyManager(keys []string, cooldown time.Duration) *KeyManager {
	return &KeyManager{
		keys:     append([]string(nil), keys...),
		cooldown: cooldown,
		failedAt: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Len returns the number of managed keys.
func (km *KeyManager) Len() int { return len(km.keys) }

// Next returns the next usable key, or "" when there are none.
func (km *KeyManager) Next() string {
	km.mu.Lock()
	defer km.mu.Unlock()

	if len(km.keys) == 0 {
		return ""
	}

	now := km.now()
	oldest := -1
	for i := 0; i < len(km.keys); i++ {
		idx := (km.next + i) % len(km.keys)
		key := km.keys[idx]
		failed, ok := km.failedAt[key]
		if !ok || now.Sub(failed) >= km.cooldown {
			delete(km.failedAt, key)
			km.next = idx + 1
			return key
		}
		if oldest < 0 || failed.Before(km.failedAt[km.keys[oldest]]) {
			oldest = idx
		}
	}
	km.next = oldest + 1
	return km.keys[oldest]
}

// MarkFailed puts key on cooldown.
func (km *KeyManager) MarkFailed(key string) {
	km.mu.Lock()
	defer km.mu.Unlock()
	km.failedAt[key] = km.now()
}
