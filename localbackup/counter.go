package localbackup

// PageCounter bounds one backup run against a page quota and hands out
// per-parent sibling numbers.  Plain in-memory counters; the traversal owns
// exactly one instance per run, so no locking.
type PageCounter struct {
	count         int
	limit         int
	levelCounters map[string]int
}

// NewPageCounter returns a counter with the given quota.  A limit of -1 means
// unlimited.
func NewPageCounter(limit int) *PageCounter {
	return &PageCounter{
		limit:         limit,
		levelCounters: map[string]int{},
	}
}

// TryAdvance increments the total-visited count and reports whether the new
// count is still within quota.  Call exactly once per page considered.
func (c *PageCounter) TryAdvance() bool {
	c.count++
	return c.limit == -1 || c.count <= c.limit
}

// Exhausted reports whether the quota has already been reached, without
// consuming anything.  Used to stop fetching page lists once the run is done.
func (c *PageCounter) Exhausted() bool {
	return c.limit != -1 && c.count >= c.limit
}

// NextSiblingNumber returns the next 1-based ordinal under parentKey.  Each
// parent key numbers independently; numbers are never reused within a run.
func (c *PageCounter) NextSiblingNumber(parentKey string) int {
	c.levelCounters[parentKey]++
	return c.levelCounters[parentKey]
}

// Count returns the number of pages considered so far.
func (c *PageCounter) Count() int {
	return c.count
}
