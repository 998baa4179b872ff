package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
	"github.com/ezoooooooooo/rental-rating-engine/internal/ratingapi"
)

// State names the dialog lifecycle positions.
type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateSubmitting State = "submitting"
)

// Mode distinguishes a fresh rating from an edit of an existing one.
type Mode string

const (
	ModeCreating Mode = "creating"
	ModeEditing  Mode = "editing"
)

// ErrSubmitting is returned when a submit is requested while one is already
// in flight. The disabled submit control is the engine's sole concurrency
// guard, so a second call is a host bug.
var ErrSubmitting = errors.New("engine: submission already in flight")

// ErrDialogClosed is returned when staged fields are touched with no dialog
// open.
var ErrDialogClosed = errors.New("engine: dialog is not open")

// Form holds the staged field values of the open dialog tab.
type Form struct {
	Score      int            `validate:"required,min=1,max=5"`
	Comment    string         `validate:"required,max=500"`
	Categories map[string]int `validate:"dive,min=0,max=5"`
}

var validate = validator.New()

type dialog struct {
	state      State
	mode       Mode
	tab        domain.TargetType
	target     domain.TargetRef
	existing   *domain.Rating
	form       Form
	submitting bool
}

// DialogState reports the dialog's current position.
func (e *Engine) DialogState() State {
	if e.dialog.state == "" {
		return StateClosed
	}
	return e.dialog.state
}

// DialogMode reports creating vs editing; meaningful only while open.
func (e *Engine) DialogMode() Mode { return e.dialog.mode }

// DialogForm returns the staged field values.
func (e *Engine) DialogForm() Form { return e.dialog.form }

// OpenDialog opens the rating dialog on a tab. If the cache has no entry for
// the tab's target yet it is read first, so the create-vs-edit decision is
// made against known server state. Finding a rating by the current rater
// switches the dialog to edit mode with the form pre-populated; the submit
// affordance should then be labeled for update.
func (e *Engine) OpenDialog(ctx context.Context, tab domain.TargetType) (Mode, error) {
	target, err := e.Target(tab)
	if err != nil {
		return "", err
	}

	if _, populated := e.cache.Get(target); !populated {
		if err := e.Load(ctx, tab); err != nil {
			return "", err
		}
	}

	e.dialog = dialog{state: StateOpen, tab: tab, target: target}
	e.stageFor(target)
	return e.dialog.mode, nil
}

// SwitchTab moves the open dialog to another tab, resetting staged star
// selections and comment text without closing.
func (e *Engine) SwitchTab(ctx context.Context, tab domain.TargetType) (Mode, error) {
	if e.DialogState() == StateClosed {
		return "", ErrDialogClosed
	}
	return e.OpenDialog(ctx, tab)
}

// stageFor resets the form for a target, prefilled when the current rater
// already rated it.
func (e *Engine) stageFor(target domain.TargetRef) {
	e.dialog.mode = ModeCreating
	e.dialog.existing = nil
	e.dialog.form = Form{Categories: map[string]int{}}

	raterID, ok := e.raterID()
	if !ok {
		return
	}
	existing, found := e.cache.FindByRater(target, raterID)
	if !found {
		return
	}

	e.dialog.mode = ModeEditing
	e.dialog.existing = &existing
	e.dialog.form = Form{
		Score:      existing.Score,
		Comment:    existing.Comment,
		Categories: map[string]int{},
	}
	for name, value := range existing.CategoryScores {
		e.dialog.form.Categories[name] = value
	}
}

// SetScore stages the overall star selection.
func (e *Engine) SetScore(score int) error {
	if e.DialogState() != StateOpen {
		return ErrDialogClosed
	}
	e.dialog.form.Score = score
	return nil
}

// SetComment stages the comment text.
func (e *Engine) SetComment(comment string) error {
	if e.DialogState() != StateOpen {
		return ErrDialogClosed
	}
	e.dialog.form.Comment = comment
	return nil
}

// SetCategory stages a per-category star selection. Unknown categories for
// the current tab are rejected; zero clears the selection.
func (e *Engine) SetCategory(name string, score int) error {
	if e.DialogState() != StateOpen {
		return ErrDialogClosed
	}
	if !categoryAllowed(e.dialog.tab, name) {
		return &ratingapi.Error{Kind: ratingapi.KindValidation, Message: "unknown category " + name}
	}
	if score <= 0 {
		delete(e.dialog.form.Categories, name)
		return nil
	}
	e.dialog.form.Categories[name] = score
	return nil
}

// Close discards all staged values and returns to Closed. An in-flight
// submission is not cancelled; its completion still reconciles against the
// live cache, which is safe because reconciliation is idempotent.
func (e *Engine) Close() {
	e.dialog = dialog{state: StateClosed}
}

// Submit validates the staged form and sends the mutation. On success the
// dialog closes and the cache and view are reconciled. On failure the dialog
// stays open on the same tab with fields retained so the user can retry.
//
// A duplicate-rating rejection on create is not a dead end: the engine
// reloads the target, adopts the existing rating, and flips the dialog to
// edit mode so the host can offer "update instead", returning the classified
// error alongside.
func (e *Engine) Submit(ctx context.Context) (domain.Rating, error) {
	if e.DialogState() == StateClosed {
		return domain.Rating{}, ErrDialogClosed
	}
	if e.dialog.submitting {
		return domain.Rating{}, ErrSubmitting
	}

	if err := e.validateForm(); err != nil {
		return domain.Rating{}, err
	}
	if _, err := e.requireRater(); err != nil {
		return domain.Rating{}, err
	}

	target := e.dialog.target
	payload := ratingapi.SubmitPayload{
		Score:          e.dialog.form.Score,
		Comment:        strings.TrimSpace(e.dialog.form.Comment),
		CategoryScores: e.dialog.form.Categories,
	}

	e.dialog.submitting = true
	e.dialog.state = StateSubmitting

	var (
		rating domain.Rating
		err    error
		kind   domain.MutationKind
	)
	if e.dialog.mode == ModeEditing && e.dialog.existing != nil {
		kind = domain.MutationUpdate
		rating, err = e.api.Update(ctx, target, e.dialog.existing.ID, payload)
	} else {
		kind = domain.MutationCreate
		rating, err = e.api.Create(ctx, target, payload)
	}

	e.dialog.submitting = false
	if err != nil {
		e.dialog.state = StateOpen
		if errors.Is(err, ratingapi.ErrMissingID) {
			// Server accepted the write but gave nothing to patch with; a
			// full refresh is the only safe reconciliation.
			e.reconcileByRefreshOnly(ctx, target)
			e.Close()
			return domain.Rating{}, err
		}
		if ratingapi.IsKind(err, ratingapi.KindDuplicate) && kind == domain.MutationCreate {
			e.adoptExisting(ctx, target)
		}
		return domain.Rating{}, err
	}

	if rating.RaterID == "" {
		if raterID, ok := e.raterID(); ok {
			rating.RaterID = raterID
		}
	}

	e.Close()
	e.reconcile(ctx, target, domain.Mutation{Kind: kind, Rating: rating})
	return rating, nil
}

// reconcileByRefreshOnly is the degenerate reconciliation for mutations whose
// response could not identify the touched record.
func (e *Engine) reconcileByRefreshOnly(ctx context.Context, target domain.TargetRef) {
	ratings, err := e.api.List(ctx, target)
	if err != nil {
		e.logger.Error("refresh after id-less mutation failed; cache may lag until next load")
		return
	}
	e.cache.Set(target, ratings)
	e.view.RenderList(target, ratings)
	e.showSummary(target)
}

// adoptExisting reacts to a duplicate-create rejection by locating the
// rating the server says already exists and flipping to edit mode, keeping
// the user's staged values.
func (e *Engine) adoptExisting(ctx context.Context, target domain.TargetRef) {
	staged := e.dialog.form

	ratings, err := e.api.List(ctx, target)
	if err == nil {
		e.cache.Set(target, ratings)
	}
	raterID, ok := e.raterID()
	if !ok {
		return
	}
	existing, found := e.cache.FindByRater(target, raterID)
	if !found {
		return
	}
	e.dialog.mode = ModeEditing
	e.dialog.existing = &existing
	e.dialog.form = staged
}

func (e *Engine) validateForm() error {
	form := e.dialog.form
	form.Comment = strings.TrimSpace(form.Comment)

	if err := validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &ratingapi.Error{Kind: ratingapi.KindValidation, Message: validationMessage(fieldErrs[0])}
		}
		return &ratingapi.Error{Kind: ratingapi.KindValidation, Message: "invalid form"}
	}
	return nil
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Field() {
	case "Score":
		return "select an overall star rating"
	case "Comment":
		if fieldErr.Tag() == "max" {
			return "comment must be 500 characters or fewer"
		}
		return "comment is required"
	default:
		return "category scores must be between 1 and 5"
	}
}

func categoryAllowed(tab domain.TargetType, name string) bool {
	for _, c := range tab.Categories() {
		if c == name {
			return true
		}
	}
	return false
}
