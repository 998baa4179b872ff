package domain

// MutationKind names the three ways a rating list can change.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// Mutation describes one applied change. For deletes only Rating.ID is used.
type Mutation struct {
	Kind   MutationKind
	Rating Rating
}

// Apply returns the rating list after the mutation, leaving the input
// untouched. Creates splice at the front, updates replace by id, deletes
// excise by id. Applying the same mutation twice yields the same list, which
// is what makes late reconciliation after a closed dialog safe.
func (m Mutation) Apply(current []Rating) []Rating {
	switch m.Kind {
	case MutationCreate, MutationUpdate:
		next := make([]Rating, 0, len(current)+1)
		replaced := false
		for _, r := range current {
			if r.ID == m.Rating.ID {
				next = append(next, m.Rating)
				replaced = true
				continue
			}
			next = append(next, r)
		}
		if !replaced {
			next = append([]Rating{m.Rating}, next...)
		}
		return next
	case MutationDelete:
		next := make([]Rating, 0, len(current))
		for _, r := range current {
			if r.ID != m.Rating.ID {
				next = append(next, r)
			}
		}
		return next
	}
	return current
}
