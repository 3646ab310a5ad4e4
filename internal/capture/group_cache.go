package capture

import (
	"sync"
	"time"
)

type groupNameEntry struct {
	name    string
	expires time.Time
}

// groupNameCache 群组显示名的 TTL 缓存
// 排除检查每条消息都要群组名，不能每次都打一次会话查询
type groupNameCache struct {
	mu     sync.RWMutex
	ttl    time.Duration
	values map[string]groupNameEntry
}

func newGroupNameCache(ttl time.Duration) *groupNameCache {
	if ttl <= 0 {
		return nil
	}
	return &groupNameCache{
		ttl:    ttl,
		values: make(map[string]groupNameEntry),
	}
}

func (c *groupNameCache) Get(groupJID string) (string, bool) {
	if c == nil {
		return "", false
	}

	c.mu.RLock()
	entry, ok := c.values[groupJID]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.values, groupJID)
		c.mu.Unlock()
		return "", false
	}

	return entry.name, true
}

func (c *groupNameCache) Set(groupJID, name string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.values[groupJID] = groupNameEntry{
		name:    name,
		expires: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}
