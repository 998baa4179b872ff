package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
)

// RatingsRepository persists ratings for listings, owners and renters.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingCreateParams captures the payload required to create a rating.
type RatingCreateParams struct {
	TargetType     domain.TargetType
	TargetID       string
	RaterID        string
	Score          int
	Comment        string
	CategoryScores map[string]int
}

const ratingColumns = `id, target_type, target_id, rater_id, score, comment, category_scores, created_at, updated_at`

// Create inserts a rating. One rating per rater per target is enforced by a
// unique constraint; a second insert surfaces ErrDuplicate.
func (r *RatingsRepository) Create(ctx context.Context, params RatingCreateParams) (domain.Rating, error) {
	const query = `
        INSERT INTO ratings (id, target_type, target_id, rater_id, score, comment, category_scores)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING ` + ratingColumns

	categories := params.CategoryScores
	if categories == nil {
		categories = map[string]int{}
	}

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		params.TargetType,
		params.TargetID,
		params.RaterID,
		params.Score,
		params.Comment,
		categories,
	)
	rating, err := scanRating(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Rating{}, ErrDuplicate
		}
		return domain.Rating{}, fmt.Errorf("create rating: %w", err)
	}
	return rating, nil
}

// Update replaces the mutable fields of the rater's own rating.
func (r *RatingsRepository) Update(ctx context.Context, ratingID, raterID string, params RatingCreateParams) (domain.Rating, error) {
	const query = `
        UPDATE ratings
        SET score = $3, comment = $4, category_scores = $5, updated_at = now()
        WHERE id = $1 AND rater_id = $2
        RETURNING ` + ratingColumns

	categories := params.CategoryScores
	if categories == nil {
		categories = map[string]int{}
	}

	row := r.pool.QueryRow(ctx, query, ratingID, raterID, params.Score, params.Comment, categories)
	rating, err := scanRating(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, fmt.Errorf("update rating: %w", err)
	}
	return rating, nil
}

// Delete removes a rating by id.
func (r *RatingsRepository) Delete(ctx context.Context, ratingID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, ratingID)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a single rating.
func (r *RatingsRepository) GetByID(ctx context.Context, ratingID string) (domain.Rating, error) {
	const query = `SELECT ` + ratingColumns + ` FROM ratings WHERE id = $1`

	rating, err := scanRating(r.pool.QueryRow(ctx, query, ratingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// GetByRater fetches the rating a specific rater left on a target.
func (r *RatingsRepository) GetByRater(ctx context.Context, target domain.TargetRef, raterID string) (domain.Rating, error) {
	const query = `
        SELECT ` + ratingColumns + `
        FROM ratings
        WHERE target_type = $1 AND target_id = $2 AND rater_id = $3
    `

	rating, err := scanRating(r.pool.QueryRow(ctx, query, target.Type, target.ID, raterID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// ListByTarget returns a target's ratings, newest first.
func (r *RatingsRepository) ListByTarget(ctx context.Context, target domain.TargetRef) ([]domain.Rating, error) {
	const query = `
        SELECT ` + ratingColumns + `
        FROM ratings
        WHERE target_type = $1 AND target_id = $2
        ORDER BY created_at DESC, id
    `

	rows, err := r.pool.Query(ctx, query, target.Type, target.ID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

// Aggregate returns the overall average and count for a target.
func (r *RatingsRepository) Aggregate(ctx context.Context, target domain.TargetRef) (float64, int, error) {
	const query = `
        SELECT COALESCE(ROUND(AVG(score)::numeric, 1), 0)::float8 AS average,
               COUNT(*)::int8 AS count
        FROM ratings
        WHERE target_type = $1 AND target_id = $2
    `

	var average float64
	var count int64
	if err := r.pool.QueryRow(ctx, query, target.Type, target.ID).Scan(&average, &count); err != nil {
		return 0, 0, fmt.Errorf("aggregate ratings: %w", err)
	}
	return average, int(count), nil
}

func scanRating(row pgx.Row) (domain.Rating, error) {
	var rating domain.Rating
	var targetType string
	err := row.Scan(
		&rating.ID,
		&targetType,
		&rating.TargetID,
		&rating.RaterID,
		&rating.Score,
		&rating.Comment,
		&rating.CategoryScores,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		return domain.Rating{}, err
	}
	rating.TargetType = domain.TargetType(targetType)
	return rating, nil
}
