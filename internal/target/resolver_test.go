package target

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
)

func TestResolve_QueryParamPriority(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		wantType domain.TargetType
		wantID   string
	}{
		{"listingId", "listingId=l-1", domain.TargetItem, "l-1"},
		{"itemId fallback", "itemId=l-2", domain.TargetItem, "l-2"},
		{"bare id is an item", "id=l-3", domain.TargetItem, "l-3"},
		{"ownerId", "ownerId=o-1", domain.TargetOwner, "o-1"},
		{"sellerId alias", "sellerId=o-2", domain.TargetOwner, "o-2"},
		{"renterId", "renterId=r-1", domain.TargetRenter, "r-1"},
		{"item beats owner", "ownerId=o-1&listingId=l-1", domain.TargetItem, "l-1"},
		{"whitespace trimmed", "listingId=%20l-9%20", domain.TargetItem, "l-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.rawQuery)
			require.NoError(t, err)

			ref, err := Resolver{Query: values}.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ref.Type)
			assert.Equal(t, tt.wantID, ref.ID)
		})
	}
}

func TestResolve_PageStateAfterQuery(t *testing.T) {
	r := Resolver{
		Query: url.Values{},
		Page:  &PageState{OwnerID: "o-7"},
	}
	ref, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, domain.TargetRef{Type: domain.TargetOwner, ID: "o-7"}, ref)

	// A query parameter outranks the page object.
	r.Query = url.Values{"ownerId": {"o-1"}}
	ref, err = r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "o-1", ref.ID)
}

func TestResolve_ContainerAttributeLast(t *testing.T) {
	r := Resolver{
		Container: map[string]string{"data-listing-id": "l-42"},
	}
	ref, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, domain.TargetRef{Type: domain.TargetItem, ID: "l-42"}, ref)
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolver{}.Resolve()
	assert.ErrorIs(t, err, ErrTargetNotFound)

	r := Resolver{
		Query:     url.Values{"listingId": {"   "}},
		Page:      &PageState{},
		Container: map[string]string{"data-listing-id": ""},
	}
	_, err = r.Resolve()
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestResolveType_IgnoresOtherKinds(t *testing.T) {
	values, _ := url.ParseQuery("listingId=l-1")
	_, err := Resolver{Query: values}.ResolveType(domain.TargetOwner)
	assert.ErrorIs(t, err, ErrTargetNotFound)

	ref, err := Resolver{Query: values}.ResolveType(domain.TargetItem)
	require.NoError(t, err)
	assert.Equal(t, "l-1", ref.ID)
}

func FuzzResolveQuery(f *testing.F) {
	seeds := []string{
		"listingId=l-1&ownerId=o-1",
		"id=",
		"renterId=%20",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		ref, err := Resolver{Query: values}.Resolve()
		if err == nil && ref.ID == "" {
			t.Fatalf("resolved target with empty id from %q", raw)
		}
	})
}
