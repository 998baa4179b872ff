package identity

import (
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestFromToken_ClaimPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
		wantOK bool
	}{
		{"userId wins", jwt.MapClaims{"userId": "u-1", "id": "u-2", "sub": "u-3"}, "u-1", true},
		{"id next", jwt.MapClaims{"id": "u-2", "sub": "u-3"}, "u-2", true},
		{"sub last", jwt.MapClaims{"sub": "u-3"}, "u-3", true},
		{"empty userId falls through", jwt.MapClaims{"userId": "", "sub": "u-3"}, "u-3", true},
		{"non-string ignored", jwt.MapClaims{"userId": 42, "sub": "u-3"}, "u-3", true},
		{"no identity claims", jwt.MapClaims{"role": "admin"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromToken(signToken(t, tt.claims))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromToken_Garbage(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b", "x.####.z"} {
		_, ok := FromToken(token)
		assert.False(t, ok, "token %q should not decode", token)
	}
}

func TestExtractor_Anonymous(t *testing.T) {
	var ext *Extractor
	_, ok := ext.CurrentRaterID()
	assert.False(t, ok)

	ext = NewExtractor(nil)
	_, ok = ext.CurrentRaterID()
	assert.False(t, ok)
	assert.False(t, ext.IsOwner("u-1"))
}

func TestExtractor_IsOwner(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"userId": "u-1"})
	ext := NewExtractor(StaticToken(token))

	raterID, ok := ext.CurrentRaterID()
	require.True(t, ok)
	assert.Equal(t, "u-1", raterID)

	assert.True(t, ext.IsOwner("u-1"))
	assert.False(t, ext.IsOwner("u-2"))
	assert.False(t, ext.IsOwner(""))
}
