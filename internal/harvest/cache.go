package harvest

import (
	gocache "github.com/patrickmn/go-cache"
)

// CaseCache deduplicates case records within a single run. A case surfaces
// once per hearing date it appears on; only the first sighting needs to carry
// the full case record to the store, later sightings reference the cached
// identity and ship only their hearing row.
type CaseCache struct {
	entries *gocache.Cache
}

// NewCaseCache builds an empty run-scoped cache. Entries never expire: a run
// is bounded and the cache dies with it.
func NewCaseCache() *CaseCache {
	return &CaseCache{
		entries: gocache.New(gocache.NoExpiration, 0),
	}
}

func caseKey(caseNumber, courtID string) string {
	return caseNumber + "|" + courtID
}

// Seen reports whether the (case number, court) identity was already observed
// this run, recording it if not. The first caller gets false.
func (c *CaseCache) Seen(caseNumber, courtID string) bool {
	key := caseKey(caseNumber, courtID)
	if _, found := c.entries.Get(key); found {
		return true
	}
	c.entries.Set(key, struct{}{}, gocache.NoExpiration)
	return false
}

// Len returns the number of distinct case identities observed so far.
func (c *CaseCache) Len() int {
	return c.entries.ItemCount()
}
