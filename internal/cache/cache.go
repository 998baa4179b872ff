// Package cache holds the engine's last-known rating lists and their derived
// summaries. Access is confined to the engine's single event goroutine, so no
// locking discipline is needed beyond read/modify/write within one step.
package cache

import (
	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
)

type entry struct {
	ratings []domain.Rating
	summary domain.RatingSummary
}

// Cache maps (targetType, targetId) to the known rating list. Entries are
// created on first successful read and live for the page session.
type Cache struct {
	entries map[domain.TargetRef]*entry
}

// New constructs an empty cache.
func New() *Cache {
	return &Cache{entries: map[domain.TargetRef]*entry{}}
}

// Get returns a copy of the last-known list for the target. ok is false when
// the target was never populated, which is distinct from a populated empty
// list.
func (c *Cache) Get(target domain.TargetRef) ([]domain.Rating, bool) {
	e, ok := c.entries[target]
	if !ok {
		return nil, false
	}
	out := make([]domain.Rating, len(e.ratings))
	copy(out, e.ratings)
	return out, true
}

// Summary returns the derived aggregate for the target.
func (c *Cache) Summary(target domain.TargetRef) (domain.RatingSummary, bool) {
	e, ok := c.entries[target]
	if !ok {
		return domain.RatingSummary{}, false
	}
	return e.summary, true
}

// Set replaces the target's list wholesale, the path taken after a successful
// full reload.
func (c *Cache) Set(target domain.TargetRef, ratings []domain.Rating) {
	stored := make([]domain.Rating, len(ratings))
	copy(stored, ratings)
	c.entries[target] = &entry{
		ratings: stored,
		summary: domain.Summarize(stored),
	}
}

// Upsert inserts or replaces a rating by id, used when a full reload is
// unavailable. New ratings go to the front, matching how the visible list
// splices fresh entries. Re-applying the same rating is a no-op beyond the
// replace, so reconciliation stays idempotent.
func (c *Cache) Upsert(target domain.TargetRef, rating domain.Rating) {
	e, ok := c.entries[target]
	if !ok {
		e = &entry{}
		c.entries[target] = e
	}
	replaced := false
	for i := range e.ratings {
		if e.ratings[i].ID == rating.ID {
			e.ratings[i] = rating
			replaced = true
			break
		}
	}
	if !replaced {
		e.ratings = append([]domain.Rating{rating}, e.ratings...)
	}
	e.summary = domain.Summarize(e.ratings)
}

// Remove deletes a rating by id and reports whether it was present.
func (c *Cache) Remove(target domain.TargetRef, ratingID string) bool {
	e, ok := c.entries[target]
	if !ok {
		return false
	}
	for i := range e.ratings {
		if e.ratings[i].ID == ratingID {
			e.ratings = append(e.ratings[:i], e.ratings[i+1:]...)
			e.summary = domain.Summarize(e.ratings)
			return true
		}
	}
	return false
}

// Find returns the cached rating with the given id, if any.
func (c *Cache) Find(target domain.TargetRef, ratingID string) (domain.Rating, bool) {
	e, ok := c.entries[target]
	if !ok {
		return domain.Rating{}, false
	}
	for _, r := range e.ratings {
		if r.ID == ratingID {
			return r, true
		}
	}
	return domain.Rating{}, false
}

// FindByRater returns the cached rating authored by the given rater, if any.
// The dialog uses this to decide between create and edit mode.
func (c *Cache) FindByRater(target domain.TargetRef, raterID string) (domain.Rating, bool) {
	if raterID == "" {
		return domain.Rating{}, false
	}
	e, ok := c.entries[target]
	if !ok {
		return domain.Rating{}, false
	}
	for _, r := range e.ratings {
		if r.RaterID == raterID {
			return r, true
		}
	}
	return domain.Rating{}, false
}
