// Package identity derives the current rater's identifier from the session's
// bearer token. It never calls the network: the token payload is decoded
// without signature verification because the engine only needs the claimed
// identity for ownership comparisons, the service re-checks on every mutation.
package identity

import (
	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token currently held by the session, or ""
// when the session is anonymous.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource over a fixed string.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Extractor resolves the rater ID behind a TokenSource.
type Extractor struct {
	source TokenSource
}

// NewExtractor constructs an Extractor. A nil source means anonymous.
func NewExtractor(source TokenSource) *Extractor {
	return &Extractor{source: source}
}

// CurrentRaterID returns the rater ID claimed by the session token. ok is
// false when no token is held or it cannot be decoded; callers must treat that
// as anonymous: ownership comparisons are false, mutations are disallowed.
func (e *Extractor) CurrentRaterID() (raterID string, ok bool) {
	if e == nil || e.source == nil {
		return "", false
	}
	return FromToken(e.source.Token())
}

// IsOwner reports whether the session rater authored the given rating. Always
// false for anonymous sessions.
func (e *Extractor) IsOwner(raterID string) bool {
	current, ok := e.CurrentRaterID()
	return ok && raterID != "" && current == raterID
}

// FromToken decodes the token's claims segment and returns the first of the
// userId, id, sub claims that is a non-empty string.
func FromToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", false
	}

	for _, key := range []string{"userId", "id", "sub"} {
		if value, found := claims[key]; found {
			if s, isString := value.(string); isString && s != "" {
				return s, true
			}
		}
	}
	return "", false
}
