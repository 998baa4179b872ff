package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
	"github.com/ezoooooooooo/rental-rating-engine/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ratingSubmitRequest accepts create and update payloads. Exactly one of the
// target id fields is set on create; updates carry none.
type ratingSubmitRequest struct {
	ListingID string `json:"listingId"`
	OwnerID   string `json:"ownerId"`
	RenterID  string `json:"renterId"`

	Score   int    `json:"score"`
	Comment string `json:"comment"`

	Communication int `json:"communication"`
	Reliability   int `json:"reliability"`
	ItemCondition int `json:"itemCondition"`
	ItemCare      int `json:"itemCare"`
	Timeliness    int `json:"timeliness"`
}

func (req ratingSubmitRequest) categories() map[string]int {
	categories := map[string]int{}
	for name, value := range map[string]int{
		"communication": req.Communication,
		"reliability":   req.Reliability,
		"itemCondition": req.ItemCondition,
		"itemCare":      req.ItemCare,
		"timeliness":    req.Timeliness,
	} {
		if value != 0 {
			categories[name] = value
		}
	}
	return categories
}

// Listing ratings predate the envelope convention: bare arrays, "userId" and
// "rating" spellings.
type itemRatingJSON struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ListingID string    `json:"listingId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Owner ratings came from the document store era: "_id", enveloped lists.
type ownerRatingJSON struct {
	MongoID       string    `json:"_id"`
	RaterID       string    `json:"raterId"`
	OwnerID       string    `json:"ownerId"`
	Score         int       `json:"score"`
	Comment       string    `json:"comment"`
	Communication int       `json:"communication,omitempty"`
	Reliability   int       `json:"reliability,omitempty"`
	ItemCondition int       `json:"itemCondition,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type renterRatingJSON struct {
	ID            string    `json:"id"`
	RaterID       string    `json:"raterId"`
	RenterID      string    `json:"renterId"`
	Score         int       `json:"score"`
	Comment       string    `json:"comment"`
	Communication int       `json:"communication,omitempty"`
	Reliability   int       `json:"reliability,omitempty"`
	ItemCare      int       `json:"itemCare,omitempty"`
	Timeliness    int       `json:"timeliness,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ownerListResponse struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Data    []ownerRatingJSON `json:"data"`
}

type renterListResponse struct {
	Data []renterRatingJSON `json:"data"`
}

type summaryResponse struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

func (s *Server) handleListItemRatings(w http.ResponseWriter, r *http.Request) {
	target := domain.TargetRef{Type: domain.TargetItem, ID: chi.URLParam(r, "listingID")}
	ratings, ok := s.listRatings(w, r, target)
	if !ok {
		return
	}
	items := make([]itemRatingJSON, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, toItemJSON(rating))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleListOwnerRatings(w http.ResponseWriter, r *http.Request) {
	target := domain.TargetRef{Type: domain.TargetOwner, ID: chi.URLParam(r, "ownerID")}
	ratings, ok := s.listRatings(w, r, target)
	if !ok {
		return
	}
	items := make([]ownerRatingJSON, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, toOwnerJSON(rating))
	}
	s.respondJSON(w, http.StatusOK, ownerListResponse{Success: true, Count: len(items), Data: items})
}

func (s *Server) handleListRenterRatings(w http.ResponseWriter, r *http.Request) {
	target := domain.TargetRef{Type: domain.TargetRenter, ID: chi.URLParam(r, "renterID")}
	ratings, ok := s.listRatings(w, r, target)
	if !ok {
		return
	}
	items := make([]renterRatingJSON, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, toRenterJSON(rating))
	}
	s.respondJSON(w, http.StatusOK, renterListResponse{Data: items})
}

// listRatings fetches a target's ratings. An unrated target answers 404, the
// convention the deployed service has always had; clients map it to an empty
// list.
func (s *Server) listRatings(w http.ResponseWriter, r *http.Request, target domain.TargetRef) ([]domain.Rating, bool) {
	if strings.TrimSpace(target.ID) == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "missing target id")
		return nil, false
	}
	ratings, err := s.repo.Ratings.ListByTarget(r.Context(), target)
	if err != nil {
		s.logger.Error("list ratings failed", zap.String("target", target.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list ratings")
		return nil, false
	}
	if len(ratings) == 0 {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "No ratings found")
		return nil, false
	}
	return ratings, true
}

// handleRatingSummary serves a target's rounded average and rating count.
// Unlike the list endpoints, an unrated target is a valid zero summary, not a
// 404.
func (s *Server) handleRatingSummary(w http.ResponseWriter, r *http.Request) {
	family := familyFromPath(r.URL.Path)
	params := map[domain.TargetType]string{
		domain.TargetItem:   "listingID",
		domain.TargetOwner:  "ownerID",
		domain.TargetRenter: "renterID",
	}
	target := domain.TargetRef{Type: family, ID: chi.URLParam(r, params[family])}
	if strings.TrimSpace(target.ID) == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "missing target id")
		return
	}

	average, count, err := s.repo.Ratings.Aggregate(r.Context(), target)
	if err != nil {
		s.logger.Error("aggregate ratings failed", zap.String("target", target.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to summarize ratings")
		return
	}
	s.respondJSON(w, http.StatusOK, summaryResponse{Average: average, Count: count})
}

func (s *Server) handleCreateRating(w http.ResponseWriter, r *http.Request) {
	raterID, ok := s.authRater(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req ratingSubmitRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	family := familyFromPath(r.URL.Path)
	target, err := targetFromRequest(family, req)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	if msg := validateSubmit(family, req); msg != "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg)
		return
	}

	rating, err := s.repo.Ratings.Create(r.Context(), repository.RatingCreateParams{
		TargetType:     target.Type,
		TargetID:       target.ID,
		RaterID:        raterID,
		Score:          req.Score,
		Comment:        strings.TrimSpace(req.Comment),
		CategoryScores: req.categories(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.respondError(w, http.StatusConflict, "DUPLICATE_RATING",
				fmt.Sprintf("You have already rated this %s", family))
			return
		}
		s.logger.Error("create rating failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create rating")
		return
	}

	s.respondMutation(w, http.StatusCreated, family, rating)
}

func (s *Server) handleUpdateRating(w http.ResponseWriter, r *http.Request) {
	raterID, ok := s.authRater(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	ratingID := chi.URLParam(r, "ratingID")

	existing, err := s.repo.Ratings.GetByID(r.Context(), ratingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Rating not found")
			return
		}
		s.logger.Error("fetch rating failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update rating")
		return
	}
	if existing.RaterID != raterID {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Only the author can modify a rating")
		return
	}

	var req ratingSubmitRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	family := familyFromPath(r.URL.Path)
	if msg := validateSubmit(family, req); msg != "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg)
		return
	}

	rating, err := s.repo.Ratings.Update(r.Context(), ratingID, raterID, repository.RatingCreateParams{
		Score:          req.Score,
		Comment:        strings.TrimSpace(req.Comment),
		CategoryScores: req.categories(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Rating not found")
			return
		}
		s.logger.Error("update rating failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update rating")
		return
	}

	s.respondMutation(w, http.StatusOK, family, rating)
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	raterID, ok := s.authRater(r)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	ratingID := chi.URLParam(r, "ratingID")

	existing, err := s.repo.Ratings.GetByID(r.Context(), ratingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Rating not found")
			return
		}
		s.logger.Error("fetch rating failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete rating")
		return
	}
	if existing.RaterID != raterID {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Only the author can delete a rating")
		return
	}

	if err := s.repo.Ratings.Delete(r.Context(), ratingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Rating not found")
			return
		}
		s.logger.Error("delete rating failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete rating")
		return
	}
	s.respondJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{Success: true, Message: "Rating deleted"})
}

// respondMutation answers create/update in the family's historical shape.
func (s *Server) respondMutation(w http.ResponseWriter, status int, family domain.TargetType, rating domain.Rating) {
	switch family {
	case domain.TargetOwner:
		s.respondJSON(w, status, struct {
			Success bool            `json:"success"`
			Data    ownerRatingJSON `json:"data"`
		}{Success: true, Data: toOwnerJSON(rating)})
	case domain.TargetRenter:
		s.respondJSON(w, status, struct {
			Rating renterRatingJSON `json:"rating"`
		}{Rating: toRenterJSON(rating)})
	default:
		s.respondJSON(w, status, toItemJSON(rating))
	}
}

func familyFromPath(path string) domain.TargetType {
	switch {
	case strings.HasPrefix(path, "/owner-ratings"):
		return domain.TargetOwner
	case strings.HasPrefix(path, "/renter-ratings"):
		return domain.TargetRenter
	default:
		return domain.TargetItem
	}
}

func targetFromRequest(family domain.TargetType, req ratingSubmitRequest) (domain.TargetRef, error) {
	ids := map[domain.TargetType]string{
		domain.TargetItem:   strings.TrimSpace(req.ListingID),
		domain.TargetOwner:  strings.TrimSpace(req.OwnerID),
		domain.TargetRenter: strings.TrimSpace(req.RenterID),
	}
	fields := map[domain.TargetType]string{
		domain.TargetItem:   "listingId",
		domain.TargetOwner:  "ownerId",
		domain.TargetRenter: "renterId",
	}
	if ids[family] == "" {
		return domain.TargetRef{}, fmt.Errorf("%s is required", fields[family])
	}
	for kind, id := range ids {
		if kind != family && id != "" {
			return domain.TargetRef{}, fmt.Errorf("unexpected %s for this endpoint", fields[kind])
		}
	}
	return domain.TargetRef{Type: family, ID: ids[family]}, nil
}

func validateSubmit(family domain.TargetType, req ratingSubmitRequest) string {
	if req.Score < 1 || req.Score > 5 {
		return "score must be between 1 and 5"
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return "comment is required"
	}
	if len(comment) > domain.MaxCommentLen {
		return fmt.Sprintf("comment must be at most %d characters", domain.MaxCommentLen)
	}

	allowed := map[string]bool{}
	for _, name := range family.Categories() {
		allowed[name] = true
	}
	for name, value := range req.categories() {
		if !allowed[name] {
			return fmt.Sprintf("%s is not a valid category for %s ratings", name, family)
		}
		if value < 1 || value > 5 {
			return fmt.Sprintf("%s must be between 1 and 5", name)
		}
	}
	return ""
}

// authRater extracts the caller from a signed bearer token.
func (s *Server) authRater(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, prefix))

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	for _, key := range []string{"userId", "id", "sub"} {
		if value, ok := claims[key].(string); ok && value != "" {
			return value, true
		}
	}
	return "", false
}

func toItemJSON(rating domain.Rating) itemRatingJSON {
	return itemRatingJSON{
		ID:        rating.ID,
		UserID:    rating.RaterID,
		ListingID: rating.TargetID,
		Rating:    rating.Score,
		Comment:   rating.Comment,
		CreatedAt: rating.CreatedAt,
		UpdatedAt: rating.UpdatedAt,
	}
}

func toOwnerJSON(rating domain.Rating) ownerRatingJSON {
	return ownerRatingJSON{
		MongoID:       rating.ID,
		RaterID:       rating.RaterID,
		OwnerID:       rating.TargetID,
		Score:         rating.Score,
		Comment:       rating.Comment,
		Communication: rating.CategoryScores["communication"],
		Reliability:   rating.CategoryScores["reliability"],
		ItemCondition: rating.CategoryScores["itemCondition"],
		CreatedAt:     rating.CreatedAt,
		UpdatedAt:     rating.UpdatedAt,
	}
}

func toRenterJSON(rating domain.Rating) renterRatingJSON {
	return renterRatingJSON{
		ID:            rating.ID,
		RaterID:       rating.RaterID,
		RenterID:      rating.TargetID,
		Score:         rating.Score,
		Comment:       rating.Comment,
		Communication: rating.CategoryScores["communication"],
		Reliability:   rating.CategoryScores["reliability"],
		ItemCare:      rating.CategoryScores["itemCare"],
		Timeliness:    rating.CategoryScores["timeliness"],
		CreatedAt:     rating.CreatedAt,
		UpdatedAt:     rating.UpdatedAt,
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("encode response failed", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}
