// Package target determines which entity a rating operation concerns from the
// context a host page supplies.
package target

import (
	"errors"
	"net/url"
	"strings"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
)

// ErrTargetNotFound indicates every context source was empty. Callers must
// refuse to open a create/edit dialog in that case.
var ErrTargetNotFound = errors.New("target: not found in page context")

// PageState carries identifiers the host page already loaded into memory.
type PageState struct {
	ItemID   string
	OwnerID  string
	RenterID string
}

var queryParams = map[domain.TargetType][]string{
	domain.TargetItem:   {"listingId", "itemId", "id"},
	domain.TargetOwner:  {"ownerId", "sellerId"},
	domain.TargetRenter: {"renterId"},
}

var containerAttrs = map[domain.TargetType][]string{
	domain.TargetItem:   {"data-listing-id", "data-item-id"},
	domain.TargetOwner:  {"data-owner-id", "data-seller-id"},
	domain.TargetRenter: {"data-renter-id"},
}

// Resolver inspects, in priority order, the page URL's query parameters, the
// host page's in-memory state, and the data attributes of a designated
// container element.
type Resolver struct {
	Query     url.Values
	Page      *PageState
	Container map[string]string
}

// Resolve returns the first target found across all sources, typed by which
// lookup succeeded. Item lookups take precedence over owner, owner over
// renter, mirroring how the host pages lay out their context.
func (r Resolver) Resolve() (domain.TargetRef, error) {
	for _, t := range []domain.TargetType{domain.TargetItem, domain.TargetOwner, domain.TargetRenter} {
		if ref, err := r.ResolveType(t); err == nil {
			return ref, nil
		}
	}
	return domain.TargetRef{}, ErrTargetNotFound
}

// ResolveType resolves the target of a specific type, used when a dialog tab
// fixes the kind up front.
func (r Resolver) ResolveType(t domain.TargetType) (domain.TargetRef, error) {
	for _, key := range queryParams[t] {
		if id := strings.TrimSpace(r.Query.Get(key)); id != "" {
			return domain.TargetRef{Type: t, ID: id}, nil
		}
	}
	if r.Page != nil {
		if id := strings.TrimSpace(r.pageID(t)); id != "" {
			return domain.TargetRef{Type: t, ID: id}, nil
		}
	}
	for _, key := range containerAttrs[t] {
		if id := strings.TrimSpace(r.Container[key]); id != "" {
			return domain.TargetRef{Type: t, ID: id}, nil
		}
	}
	return domain.TargetRef{}, ErrTargetNotFound
}

func (r Resolver) pageID(t domain.TargetType) string {
	switch t {
	case domain.TargetItem:
		return r.Page.ItemID
	case domain.TargetOwner:
		return r.Page.OwnerID
	case domain.TargetRenter:
		return r.Page.RenterID
	}
	return ""
}
