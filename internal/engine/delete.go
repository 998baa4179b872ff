package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
	"github.com/ezoooooooooo/rental-rating-engine/internal/ratingapi"
)

// ErrDeleteCancelled is returned when the user declines the confirmation.
var ErrDeleteCancelled = errors.New("engine: delete not confirmed")

// CanDelete reports whether the delete affordance should be shown for a
// rating: only its author may delete it. This is a UX guard; the service
// performs the authoritative check regardless.
func (e *Engine) CanDelete(tab domain.TargetType, ratingID string) bool {
	target, err := e.Target(tab)
	if err != nil {
		return false
	}
	rating, found := e.cache.Find(target, ratingID)
	if !found {
		return false
	}
	return e.identity != nil && e.identity.IsOwner(rating.RaterID)
}

// RequestDelete runs the full deletion workflow: confirmation, dimming the
// visible row while the call is outstanding, then either the delete
// reconciliation path or restoring the row with a classified error. A
// rating the server already dropped (NotFound) is treated as deleted so the
// stale local reference goes away.
func (e *Engine) RequestDelete(ctx context.Context, tab domain.TargetType, ratingID string) error {
	target, err := e.Target(tab)
	if err != nil {
		return err
	}
	if _, err := e.requireRater(); err != nil {
		return err
	}
	if !e.CanDelete(tab, ratingID) {
		return &ratingapi.Error{Kind: ratingapi.KindForbidden, Message: "only the author can delete a rating"}
	}

	if e.confirm != nil && !e.confirm.Confirm("Delete your rating? This cannot be undone.") {
		return ErrDeleteCancelled
	}

	e.view.SetBusy(target, ratingID, true)
	err = e.api.Delete(ctx, target, ratingID)
	e.view.SetBusy(target, ratingID, false)

	if err != nil && !ratingapi.IsKind(err, ratingapi.KindNotFound) {
		e.logger.Warn("rating delete failed",
			zap.String("ratingId", ratingID),
			zap.Error(err))
		return err
	}

	e.reconcile(ctx, target, domain.Mutation{Kind: domain.MutationDelete, Rating: domain.Rating{ID: ratingID}})
	return nil
}
