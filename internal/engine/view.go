package engine

import (
	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
)

// View is how the engine drives the host page's visible rating list. After a
// full reload the whole list is re-rendered; after a fallback patch the
// engine issues the single derived operation instead. Either way the view
// only ever sees state the cache already holds, so the two cannot diverge.
type View interface {
	RenderList(target domain.TargetRef, ratings []domain.Rating)
	Prepend(target domain.TargetRef, rating domain.Rating)
	Patch(target domain.TargetRef, rating domain.Rating)
	Remove(target domain.TargetRef, ratingID string)
	SetBusy(target domain.TargetRef, ratingID string, busy bool)
	ShowSummary(target domain.TargetRef, summary domain.RatingSummary)
}

// NopView discards all rendering, for hosts that only want the cache.
type NopView struct{}

func (NopView) RenderList(domain.TargetRef, []domain.Rating)       {}
func (NopView) Prepend(domain.TargetRef, domain.Rating)            {}
func (NopView) Patch(domain.TargetRef, domain.Rating)              {}
func (NopView) Remove(domain.TargetRef, string)                    {}
func (NopView) SetBusy(domain.TargetRef, string, bool)             {}
func (NopView) ShowSummary(domain.TargetRef, domain.RatingSummary) {}

// Confirmer interposes explicit user acknowledgment before destructive
// actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }
