package cache

import (
	"sync"
	"time"
)

// Cache 有界 key→record 时间缓存
// 按插入顺序淘汰（容量满时先淘汰最旧），按年龄过期（Sweep）。
// 事件处理与清理调度器会并发访问，内部用互斥锁保护。
// 结构本身不做任何文件 I/O，被移除记录的善后由调用方负责。
type Cache[V any] struct {
	mu         sync.Mutex
	maxEntries int // 0 表示不设容量上限
	entries    map[string]V
	order      []string // 插入顺序，头部最旧
	recordedAt func(V) time.Time
}

// New 创建缓存
// maxEntries: 容量硬上限，0 表示仅按时间过期
// recordedAt: 从记录中取出入缓存时间，用于过期判断
func New[V any](maxEntries int, recordedAt func(V) time.Time) *Cache[V] {
	return &Cache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]V),
		recordedAt: recordedAt,
	}
}

// Put 写入记录
// 容量满时先淘汰最旧的一条再写入（硬上限）。
// 重复 key 视为覆盖，并重新计入插入顺序。
// 返回因容量淘汰被移除的记录（若有）。
func (c *Cache[V]) Put(key string, value V) (evicted V, wasEvicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeOrderLocked(key)
	} else if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		oldest := c.order[0]
		evicted = c.entries[oldest]
		wasEvicted = true
		delete(c.entries, oldest)
		c.order = c.order[1:]
	}

	c.entries[key] = value
	c.order = append(c.order, key)
	return evicted, wasEvicted
}

// Get 按 key 查询
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	return value, ok
}

// Delete 按 key 删除，返回被删除的记录
func (c *Cache[V]) Delete(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	delete(c.entries, key)
	c.removeOrderLocked(key)
	return value, true
}

// Len 当前记录数
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep 移除所有超龄记录并返回它们
// maxAge 按记录给出最大允许年龄；now - recordedAt > maxAge 即移除。
// 文件删除等副作用由调用方对返回值执行。
func (c *Cache[V]) Sweep(now time.Time, maxAge func(V) time.Duration) []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []V
	kept := c.order[:0]
	for _, key := range c.order {
		value := c.entries[key]
		if now.Sub(c.recordedAt(value)) > maxAge(value) {
			removed = append(removed, value)
			delete(c.entries, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	return removed
}

// Range 遍历当前所有记录（持锁执行，fn 内不得回调本缓存）
func (c *Cache[V]) Range(fn func(key string, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.order {
		fn(key, c.entries[key])
	}
}

func (c *Cache[V]) removeOrderLocked(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
