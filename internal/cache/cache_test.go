package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
)

var target = domain.TargetRef{Type: domain.TargetOwner, ID: "o-1"}

func rating(id, rater string, score int) domain.Rating {
	return domain.Rating{ID: id, RaterID: rater, TargetID: target.ID, TargetType: target.Type, Score: score}
}

func TestGet_NeverPopulatedVsEmpty(t *testing.T) {
	c := New()

	_, ok := c.Get(target)
	assert.False(t, ok, "unpopulated target must be distinguishable")

	c.Set(target, nil)
	got, ok := c.Get(target)
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestSet_RecomputesSummary(t *testing.T) {
	c := New()
	c.Set(target, []domain.Rating{rating("rt-1", "u-1", 5), rating("rt-2", "u-2", 3)})

	summary, ok := c.Summary(target)
	require.True(t, ok)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 4.0, summary.AverageOverall, 1e-9)
}

func TestUpsert_InsertPrependsAndRecomputes(t *testing.T) {
	c := New()
	c.Set(target, []domain.Rating{rating("rt-1", "u-1", 5)})

	c.Upsert(target, rating("rt-2", "u-2", 3))

	got, _ := c.Get(target)
	require.Len(t, got, 2)
	assert.Equal(t, "rt-2", got[0].ID, "new ratings splice at the front")

	summary, _ := c.Summary(target)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 4.0, summary.AverageOverall, 1e-9)
}

func TestUpsert_ReplaceByIDKeepsCount(t *testing.T) {
	c := New()
	c.Set(target, []domain.Rating{rating("rt-1", "u-1", 5), rating("rt-2", "u-2", 3)})

	edited := rating("rt-1", "u-1", 4)
	c.Upsert(target, edited)
	c.Upsert(target, edited) // idempotent

	got, _ := c.Get(target)
	require.Len(t, got, 2)

	summary, _ := c.Summary(target)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 3.5, summary.AverageOverall, 1e-9)
}

func TestRemove(t *testing.T) {
	c := New()
	c.Set(target, []domain.Rating{rating("rt-1", "u-1", 5), rating("rt-2", "u-2", 3)})

	assert.True(t, c.Remove(target, "rt-1"))
	assert.False(t, c.Remove(target, "rt-1"))

	got, _ := c.Get(target)
	require.Len(t, got, 1)
	assert.Equal(t, "rt-2", got[0].ID)

	summary, _ := c.Summary(target)
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 3.0, summary.AverageOverall, 1e-9)
}

func TestFindByRater(t *testing.T) {
	c := New()
	c.Set(target, []domain.Rating{rating("rt-1", "u-1", 5)})

	got, ok := c.FindByRater(target, "u-1")
	require.True(t, ok)
	assert.Equal(t, "rt-1", got.ID)

	_, ok = c.FindByRater(target, "u-9")
	assert.False(t, ok)
	_, ok = c.FindByRater(target, "")
	assert.False(t, ok)
}

func TestGet_ReturnsCopy(t *testing.T) {
	c := New()
	c.Set(target, []domain.Rating{rating("rt-1", "u-1", 5)})

	got, _ := c.Get(target)
	got[0].Score = 1

	again, _ := c.Get(target)
	assert.Equal(t, 5, again[0].Score, "mutating a read result must not touch the cache")
}
