// Package engine coordinates the rating dialog, the rating cache, and the
// marketplace rating service so that what the user sees never silently
// diverges from what the engine knows.
//
// All engine methods are meant to be called from a single event goroutine,
// mirroring the UI-thread model of the host pages. Network calls are the only
// suspension points.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ezoooooooooo/rental-rating-engine/internal/cache"
	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
	"github.com/ezoooooooooo/rental-rating-engine/internal/identity"
	"github.com/ezoooooooooo/rental-rating-engine/internal/ratingapi"
)

// ErrNoTarget is returned when an operation names a tab the engine has no
// target for.
var ErrNoTarget = errors.New("engine: no target for tab")

// Config wires an Engine's collaborators. Everything is injected so multiple
// engine instances or test doubles can coexist; there is deliberately no
// package-level singleton.
type Config struct {
	API      ratingapi.Client
	Identity *identity.Extractor
	View     View
	Confirm  Confirmer
	Targets  map[domain.TargetType]domain.TargetRef
	Logger   *zap.Logger
}

// Engine is one page's rating coordinator.
type Engine struct {
	api      ratingapi.Client
	identity *identity.Extractor
	view     View
	confirm  Confirmer
	targets  map[domain.TargetType]domain.TargetRef
	cache    *cache.Cache
	logger   *zap.Logger

	dialog dialog
}

// New constructs an Engine for the given page context.
func New(cfg Config) (*Engine, error) {
	if cfg.API == nil {
		return nil, errors.New("engine: API client is required")
	}
	if len(cfg.Targets) == 0 {
		return nil, errors.New("engine: at least one target is required")
	}
	view := cfg.View
	if view == nil {
		view = NopView{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		api:      cfg.API,
		identity: cfg.Identity,
		view:     view,
		confirm:  cfg.Confirm,
		targets:  cfg.Targets,
		cache:    cache.New(),
		logger:   logger,
	}, nil
}

// Target returns the target backing a tab.
func (e *Engine) Target(tab domain.TargetType) (domain.TargetRef, error) {
	target, ok := e.targets[tab]
	if !ok {
		return domain.TargetRef{}, fmt.Errorf("%w: %s", ErrNoTarget, tab)
	}
	return target, nil
}

// Load populates the cache for a tab's target and renders the list and
// summary. A resolution failure leaves any previous cache entry intact so the
// host can show a retry affordance.
func (e *Engine) Load(ctx context.Context, tab domain.TargetType) error {
	target, err := e.Target(tab)
	if err != nil {
		return err
	}

	ratings, err := e.api.List(ctx, target)
	if err != nil {
		e.logger.Warn("rating load failed",
			zap.String("targetType", string(target.Type)),
			zap.String("targetId", target.ID),
			zap.Error(err))
		return err
	}

	e.cache.Set(target, ratings)
	e.view.RenderList(target, ratings)
	e.showSummary(target)
	return nil
}

// Summary returns the derived aggregate for a tab's target, if populated.
func (e *Engine) Summary(tab domain.TargetType) (domain.RatingSummary, bool) {
	target, err := e.Target(tab)
	if err != nil {
		return domain.RatingSummary{}, false
	}
	return e.cache.Summary(target)
}

// Ratings returns the cached list for a tab's target, if populated.
func (e *Engine) Ratings(tab domain.TargetType) ([]domain.Rating, bool) {
	target, err := e.Target(tab)
	if err != nil {
		return nil, false
	}
	return e.cache.Get(target)
}

// reconcile brings cache and view back in sync after a successful mutation.
// The full refresh is preferred because it captures server-side changes
// beyond the local one; when it fails the cache is patched through the pure
// mutation transition and the view receives the derived operation. The
// mutation endpoint and the read endpoints live in distinct failure domains,
// so a refresh failure right after a successful write is a real case, and a
// stale summary is worse than a best-effort local patch.
func (e *Engine) reconcile(ctx context.Context, target domain.TargetRef, mutation domain.Mutation) {
	ratings, err := e.api.List(ctx, target)
	if err == nil {
		e.cache.Set(target, ratings)
		e.view.RenderList(target, ratings)
		e.showSummary(target)
		return
	}

	e.logger.Warn("refresh after mutation failed, patching cache locally",
		zap.String("targetType", string(target.Type)),
		zap.String("targetId", target.ID),
		zap.String("mutation", string(mutation.Kind)),
		zap.Error(err))

	current, _ := e.cache.Get(target)
	alreadyCached := false
	for _, rating := range current {
		if rating.ID == mutation.Rating.ID {
			alreadyCached = true
			break
		}
	}
	e.cache.Set(target, mutation.Apply(current))

	// The view op follows what the cache transition actually did, not the
	// mutation kind: a late create reconciliation can land after another
	// dialog instance already put the same id on screen, and prepending it
	// again would double-render the row.
	switch {
	case mutation.Kind == domain.MutationDelete:
		e.view.Remove(target, mutation.Rating.ID)
	case alreadyCached:
		e.view.Patch(target, mutation.Rating)
	default:
		e.view.Prepend(target, mutation.Rating)
	}
	e.showSummary(target)
}

func (e *Engine) showSummary(target domain.TargetRef) {
	if summary, ok := e.cache.Summary(target); ok {
		e.view.ShowSummary(target, summary)
	}
}

func (e *Engine) raterID() (string, bool) {
	if e.identity == nil {
		return "", false
	}
	return e.identity.CurrentRaterID()
}

// requireRater gates mutating actions: anonymous sessions must be sent to a
// login flow instead of producing a doomed network call.
func (e *Engine) requireRater() (string, error) {
	raterID, ok := e.raterID()
	if !ok {
		return "", &ratingapi.Error{Kind: ratingapi.KindUnauthenticated, Message: "sign in to rate"}
	}
	return raterID, nil
}
