package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRecord struct {
	id       string
	cachedAt time.Time
	isStatus bool
}

func newTestCache(max int) *Cache[*fakeRecord] {
	return New(max, func(r *fakeRecord) time.Time { return r.cachedAt })
}

func TestPutEnforcesHardCap(t *testing.T) {
	c := newTestCache(3)
	base := time.Now()

	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprintf("m%d", i), &fakeRecord{id: fmt.Sprintf("m%d", i), cachedAt: base})
		require.LessOrEqual(t, c.Len(), 3, "cache size must never exceed the cap")
	}

	// 留下的应当是最新插入的三条
	for _, id := range []string{"m7", "m8", "m9"} {
		_, ok := c.Get(id)
		require.True(t, ok, "expected %s to survive", id)
	}
	_, ok := c.Get("m6")
	require.False(t, ok, "m6 should have been evicted")
}

func TestPutEvictsOldestFirst(t *testing.T) {
	c := newTestCache(2)
	base := time.Now()

	c.Put("a", &fakeRecord{id: "a", cachedAt: base})
	c.Put("b", &fakeRecord{id: "b", cachedAt: base})

	evicted, ok := c.Put("c", &fakeRecord{id: "c", cachedAt: base})
	require.True(t, ok)
	require.Equal(t, "a", evicted.id, "least-recently-inserted entry must go first")
}

func TestPutOverwriteIsIdempotent(t *testing.T) {
	c := newTestCache(2)
	base := time.Now()

	c.Put("a", &fakeRecord{id: "a", cachedAt: base})
	_, evicted := c.Put("a", &fakeRecord{id: "a2", cachedAt: base})
	require.False(t, evicted, "overwrite must not evict")
	require.Equal(t, 1, c.Len())

	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "a2", got.id)

	// 覆盖后 a 重新计入插入顺序，淘汰顺位排到 b 之后
	c.Put("b", &fakeRecord{id: "b", cachedAt: base})
	evictedRec, ok := c.Put("c", &fakeRecord{id: "c", cachedAt: base})
	require.True(t, ok)
	require.Equal(t, "b", evictedRec.id)
}

func TestDelete(t *testing.T) {
	c := newTestCache(0)
	c.Put("a", &fakeRecord{id: "a", cachedAt: time.Now()})

	rec, ok := c.Delete("a")
	require.True(t, ok)
	require.Equal(t, "a", rec.id)
	require.Equal(t, 0, c.Len())

	_, ok = c.Delete("a")
	require.False(t, ok, "second delete must be a no-op")
}

func TestSweepRemovesExactlyExpired(t *testing.T) {
	c := newTestCache(0)
	now := time.Now()

	statusAge := 24 * time.Hour
	mediaAge := 68 * time.Hour
	ageFn := func(r *fakeRecord) time.Duration {
		if r.isStatus {
			return statusAge
		}
		return mediaAge
	}

	// now - T > A 才移除；恰好等于 A 的必须保留
	c.Put("status-old", &fakeRecord{id: "status-old", cachedAt: now.Add(-25 * time.Hour), isStatus: true})
	c.Put("status-edge", &fakeRecord{id: "status-edge", cachedAt: now.Add(-statusAge), isStatus: true})
	c.Put("media-young", &fakeRecord{id: "media-young", cachedAt: now.Add(-25 * time.Hour)})
	c.Put("media-old", &fakeRecord{id: "media-old", cachedAt: now.Add(-69 * time.Hour)})

	removed := c.Sweep(now, ageFn)

	removedIDs := make([]string, 0, len(removed))
	for _, r := range removed {
		removedIDs = append(removedIDs, r.id)
	}
	require.ElementsMatch(t, []string{"status-old", "media-old"}, removedIDs)

	_, ok := c.Get("status-edge")
	require.True(t, ok, "record aged exactly maxAge must survive")
	_, ok = c.Get("media-young")
	require.True(t, ok)
	require.Equal(t, 2, c.Len())
}

func TestSweepKeepsInsertionOrderConsistent(t *testing.T) {
	c := newTestCache(3)
	now := time.Now()
	ageFn := func(*fakeRecord) time.Duration { return time.Hour }

	c.Put("old", &fakeRecord{id: "old", cachedAt: now.Add(-2 * time.Hour)})
	c.Put("a", &fakeRecord{id: "a", cachedAt: now})
	c.Put("b", &fakeRecord{id: "b", cachedAt: now})

	c.Sweep(now, ageFn)

	// Sweep 之后容量淘汰仍按剩余条目的插入顺序走
	c.Put("c", &fakeRecord{id: "c", cachedAt: now})
	evicted, ok := c.Put("d", &fakeRecord{id: "d", cachedAt: now})
	require.True(t, ok)
	require.Equal(t, "a", evicted.id)
}

func TestRange(t *testing.T) {
	c := newTestCache(0)
	now := time.Now()
	c.Put("a", &fakeRecord{id: "a", cachedAt: now})
	c.Put("b", &fakeRecord{id: "b", cachedAt: now})

	var seen []string
	c.Range(func(key string, _ *fakeRecord) {
		seen = append(seen, key)
	})
	require.Equal(t, []string{"a", "b"}, seen, "Range walks in insertion order")
}
