package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
	"github.com/ezoooooooooo/rental-rating-engine/internal/ratingapi"
)

func seedOwnRating(t *testing.T, rig *testRig) domain.Rating {
	t.Helper()
	mine := domain.Rating{ID: "rt-1", RaterID: "u-1", Score: 4, Comment: "fine"}
	other := domain.Rating{ID: "rt-2", RaterID: "u-2", Score: 2, Comment: "meh"}
	rig.api.ratings[sellerTarget] = []domain.Rating{mine, other}
	require.NoError(t, rig.engine.Load(context.Background(), domain.TargetOwner))
	return mine
}

func TestCanDelete_AuthorOnly(t *testing.T) {
	rig := newRig(t, "u-1", nil)
	seedOwnRating(t, rig)

	assert.True(t, rig.engine.CanDelete(domain.TargetOwner, "rt-1"))
	assert.False(t, rig.engine.CanDelete(domain.TargetOwner, "rt-2"))
	assert.False(t, rig.engine.CanDelete(domain.TargetOwner, "rt-404"))
	assert.False(t, rig.engine.CanDelete(domain.TargetRenter, "rt-1"), "unconfigured tab")
}

func TestRequestDelete_DeclinedConfirmation(t *testing.T) {
	rig := newRig(t, "u-1", ConfirmerFunc(func(string) bool { return false }))
	seedOwnRating(t, rig)

	err := rig.engine.RequestDelete(context.Background(), domain.TargetOwner, "rt-1")
	assert.ErrorIs(t, err, ErrDeleteCancelled)
	assert.Zero(t, rig.api.deleteCalls)

	ratings, _ := rig.engine.Ratings(domain.TargetOwner)
	assert.Len(t, ratings, 2)
}

func TestRequestDelete_ForeignRatingIsForbidden(t *testing.T) {
	rig := newRig(t, "u-1", ConfirmerFunc(func(string) bool { return true }))
	seedOwnRating(t, rig)

	err := rig.engine.RequestDelete(context.Background(), domain.TargetOwner, "rt-2")
	assert.True(t, ratingapi.IsKind(err, ratingapi.KindForbidden), "got %v", err)
	assert.Zero(t, rig.api.deleteCalls)

	ratings, _ := rig.engine.Ratings(domain.TargetOwner)
	assert.Len(t, ratings, 2, "guard failure must not touch the cache")
}

func TestRequestDelete_SuccessRefreshesAndDims(t *testing.T) {
	rig := newRig(t, "u-1", ConfirmerFunc(func(string) bool { return true }))
	seedOwnRating(t, rig)

	require.NoError(t, rig.engine.RequestDelete(context.Background(), domain.TargetOwner, "rt-1"))
	assert.Equal(t, 1, rig.api.deleteCalls)

	busy, tracked := rig.view.busy["rt-1"]
	assert.True(t, tracked, "row must be dimmed while the call is outstanding")
	assert.False(t, busy, "dimming must be lifted afterwards")

	ratings, _ := rig.engine.Ratings(domain.TargetOwner)
	require.Len(t, ratings, 1)
	assert.Equal(t, "rt-2", ratings[0].ID)

	summary, _ := rig.engine.Summary(domain.TargetOwner)
	assert.Equal(t, 1, summary.Count)
}

func TestRequestDelete_FallbackRemovesFromView(t *testing.T) {
	rig := newRig(t, "u-1", nil)
	seedOwnRating(t, rig)
	rig.api.listErr = errors.New("read replica down")

	require.NoError(t, rig.engine.RequestDelete(context.Background(), domain.TargetOwner, "rt-1"))
	assert.Equal(t, []string{"rt-1"}, rig.view.removed)

	ratings, _ := rig.engine.Ratings(domain.TargetOwner)
	require.Len(t, ratings, 1)
	assert.Equal(t, "rt-2", ratings[0].ID)
}

func TestRequestDelete_AlreadyGoneCountsAsDeleted(t *testing.T) {
	rig := newRig(t, "u-1", nil)
	seedOwnRating(t, rig)
	rig.api.deleteErr = &ratingapi.Error{Kind: ratingapi.KindNotFound, Status: 404, Message: "no such rating"}
	rig.api.listErr = errors.New("read replica down")

	require.NoError(t, rig.engine.RequestDelete(context.Background(), domain.TargetOwner, "rt-1"))

	ratings, _ := rig.engine.Ratings(domain.TargetOwner)
	require.Len(t, ratings, 1, "stale local rating must still be dropped")
}

func TestRequestDelete_ServerErrorRestoresRow(t *testing.T) {
	rig := newRig(t, "u-1", nil)
	seedOwnRating(t, rig)
	rig.api.deleteErr = &ratingapi.Error{Kind: ratingapi.KindServer, Status: 500, Message: "boom"}

	err := rig.engine.RequestDelete(context.Background(), domain.TargetOwner, "rt-1")
	require.Error(t, err)
	assert.True(t, ratingapi.IsKind(err, ratingapi.KindServer))
	assert.False(t, rig.view.busy["rt-1"], "dimming lifted on failure too")

	ratings, _ := rig.engine.Ratings(domain.TargetOwner)
	assert.Len(t, ratings, 2, "failed delete leaves the list intact")
	assert.Empty(t, rig.view.removed)
}

func TestRequestDelete_AnonymousRejected(t *testing.T) {
	rig := newRig(t, "", nil)
	rig.api.ratings[sellerTarget] = []domain.Rating{{ID: "rt-1", RaterID: "u-1", Score: 4}}
	require.NoError(t, rig.engine.Load(context.Background(), domain.TargetOwner))

	err := rig.engine.RequestDelete(context.Background(), domain.TargetOwner, "rt-1")
	assert.True(t, ratingapi.IsKind(err, ratingapi.KindUnauthenticated))
	assert.Zero(t, rig.api.deleteCalls)
}
