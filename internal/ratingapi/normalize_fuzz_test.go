package ratingapi

import (
	"testing"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
)

func FuzzDecodeRatingList(f *testing.F) {
	seeds := []string{
		`[{"id":"rt-1","raterId":"u-1","score":5,"comment":"great"}]`,
		`{"data":[{"_id":"rt-2","userId":"u-2","rating":3}]}`,
		`{"ratings":[]}`,
		`{"success":true,"count":0,"data":null}`,
		`[]`,
		``,
		`{`,
		`[{"score":-1,"communication":-5}]`,
	}
	for _, seed := range seeds {
		f.Add([]byte(seed))
	}

	target := domain.TargetRef{Type: domain.TargetOwner, ID: "o-1"}
	f.Fuzz(func(t *testing.T, body []byte) {
		ratings, err := decodeRatingList(body, target)
		if err != nil {
			return
		}
		for _, r := range ratings {
			if r.TargetID != target.ID || r.TargetType != target.Type {
				t.Fatalf("normalized rating lost its target: %+v", r)
			}
			for name, value := range r.CategoryScores {
				if value <= 0 {
					t.Fatalf("non-positive category %q=%d survived normalization", name, value)
				}
			}
		}
	})
}
