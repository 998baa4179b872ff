package ratingapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
)

// wireRating tolerates the field spellings observed across the service's
// deployed shapes. All shape-guessing lives here, at the boundary; everything
// past this file sees only domain.Rating.
type wireRating struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`

	RaterID string `json:"raterId"`
	UserID  string `json:"userId"`

	Score  int `json:"score"`
	Rating int `json:"rating"`

	Comment string `json:"comment"`

	Communication int `json:"communication"`
	Reliability   int `json:"reliability"`
	ItemCondition int `json:"itemCondition"`
	ItemCare      int `json:"itemCare"`
	Timeliness    int `json:"timeliness"`

	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// listEnvelope covers {data:[...]}, {ratings:[...]} and {success,count,data}.
type listEnvelope struct {
	Data    []wireRating `json:"data"`
	Ratings []wireRating `json:"ratings"`
}

// mutationEnvelope covers a bare rating object as well as {data:{...}} and
// {rating:{...}} create/update responses.
type mutationEnvelope struct {
	Data   *wireRating `json:"data"`
	Rating *wireRating `json:"rating"`
}

func decodeRatingList(body []byte, target domain.TargetRef) ([]domain.Rating, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []domain.Rating{}, nil
	}

	var wire []wireRating
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, fmt.Errorf("decode rating list: %w", err)
		}
	} else {
		var envelope listEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decode rating envelope: %w", err)
		}
		wire = envelope.Data
		if wire == nil {
			wire = envelope.Ratings
		}
	}

	ratings := make([]domain.Rating, 0, len(wire))
	for _, w := range wire {
		ratings = append(ratings, toDomain(w, target))
	}
	return ratings, nil
}

func decodeRating(body []byte, target domain.TargetRef) (domain.Rating, error) {
	trimmed := bytes.TrimSpace(body)

	var envelope mutationEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return domain.Rating{}, fmt.Errorf("decode rating response: %w", err)
	}

	wire := envelope.Data
	if wire == nil {
		wire = envelope.Rating
	}
	if wire == nil {
		var bare wireRating
		if err := json.Unmarshal(trimmed, &bare); err != nil {
			return domain.Rating{}, fmt.Errorf("decode rating response: %w", err)
		}
		wire = &bare
	}

	rating := toDomain(*wire, target)
	if rating.ID == "" {
		return domain.Rating{}, ErrMissingID
	}
	return rating, nil
}

func toDomain(w wireRating, target domain.TargetRef) domain.Rating {
	rating := domain.Rating{
		ID:         firstNonEmpty(w.ID, w.MongoID),
		RaterID:    firstNonEmpty(w.RaterID, w.UserID),
		TargetID:   target.ID,
		TargetType: target.Type,
		Score:      w.Score,
		Comment:    w.Comment,
	}
	if rating.Score == 0 {
		rating.Score = w.Rating
	}
	if w.CreatedAt != nil {
		rating.CreatedAt = w.CreatedAt.UTC()
	}
	if w.UpdatedAt != nil {
		rating.UpdatedAt = w.UpdatedAt.UTC()
	}

	categories := map[string]int{
		"communication": w.Communication,
		"reliability":   w.Reliability,
		"itemCondition": w.ItemCondition,
		"itemCare":      w.ItemCare,
		"timeliness":    w.Timeliness,
	}
	for name, value := range categories {
		if value <= 0 {
			continue
		}
		if rating.CategoryScores == nil {
			rating.CategoryScores = map[string]int{}
		}
		rating.CategoryScores[name] = value
	}
	return rating
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
