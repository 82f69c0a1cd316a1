package fixedincome

import (
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultScheduleCacheSize is used when a non-positive size is requested.
const DefaultScheduleCacheSize = 1024

// ScheduleCache memoises generated schedules. Schedules depend only on the
// terms, so entries never go stale; the cache only bounds memory. A nil
// *ScheduleCache is valid and generates every schedule afresh.
type ScheduleCache struct {
	entries *lru.Cache[Terms, []CashFlow]
}

// NewScheduleCache creates a cache holding at most size schedules.
func NewScheduleCache(size int) (*ScheduleCache, error) {
	if size <= 0 {
		size = DefaultScheduleCacheSize
	}
	entries, err := lru.New[Terms, []CashFlow](size)
	if err != nil {
		return nil, err
	}
	return &ScheduleCache{entries: entries}, nil
}

func cacheKey(t Terms) Terms {
	t.IssueDate = day(t.IssueDate)
	t.MaturityDate = day(t.MaturityDate)
	return t
}

// Schedule returns the full schedule for t. The returned slice is a copy and
// may be modified by the caller.
func (c *ScheduleCache) Schedule(t Terms) ([]CashFlow, error) {
	if c == nil {
		return GenerateSchedule(t)
	}
	key := cacheKey(t)
	if flows, ok := c.entries.Get(key); ok {
		return slices.Clone(flows), nil
	}
	flows, err := GenerateSchedule(key)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, flows)
	return slices.Clone(flows), nil
}

// NewSchedule is NewSchedule backed by the cache.
func (c *ScheduleCache) NewSchedule(t Terms, settlement time.Time) (Schedule, error) {
	flows, err := c.Schedule(t)
	if err != nil {
		return Schedule{}, err
	}
	return positionFlows(t, flows, settlement)
}

// Len returns the number of cached schedules.
func (c *ScheduleCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
