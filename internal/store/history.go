package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/models"
)

// Pagination bounds.
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page wraps one page of results with the totals the client paginates
// by.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func clampPagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	return int(math.Ceil(float64(total) / float64(limit)))
}

// ListHistory returns the caller's computation audit rows, newest
// first, optionally filtered by query type.
func (s *Store) ListHistory(ctx context.Context, userID int64, page, limit int, queryType string) (*Page[models.QueryHistory], error) {
	page, limit = clampPagination(page, limit)
	offset := (page - 1) * limit

	where := `WHERE h.user_id = $1`
	countArgs := []any{userID}
	listArgs := []any{userID}
	if queryType != "" {
		where += ` AND h.action_type = $2`
		countArgs = append(countArgs, queryType)
		listArgs = append(listArgs, queryType)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM query_history h `+where, countArgs...); err != nil {
		return nil, apperr.FromPG(err)
	}

	limitPos := len(listArgs) + 1
	listArgs = append(listArgs, limit, offset)
	query := `
		SELECT h.history_id, h.user_id, h.query_id, h.action_type, h.description, h.result_json, h.created_at
		FROM query_history h ` + where + `
		ORDER BY h.created_at DESC, h.history_id DESC
		LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(limitPos+1)

	items := []models.QueryHistory{}
	if err := s.db.SelectContext(ctx, &items, query, listArgs...); err != nil {
		return nil, apperr.FromPG(err)
	}

	return &Page[models.QueryHistory]{
		Items: items, Page: page, Limit: limit,
		Total: total, TotalPages: totalPages(total, limit),
	}, nil
}

// ListRecommendations returns the caller's persisted recommendations,
// newest first, optionally filtered by work type.
func (s *Store) ListRecommendations(ctx context.Context, userID int64, page, limit int, workType string) (*Page[models.Recommendation], error) {
	page, limit = clampPagination(page, limit)
	offset := (page - 1) * limit

	where := `WHERE user_id = $1`
	countArgs := []any{userID}
	listArgs := []any{userID}
	if workType != "" {
		where += ` AND work_type = $2`
		countArgs = append(countArgs, workType)
		listArgs = append(listArgs, workType)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM recommendation `+where, countArgs...); err != nil {
		return nil, apperr.FromPG(err)
	}

	limitPos := len(listArgs) + 1
	listArgs = append(listArgs, limit, offset)
	query := `
		SELECT recommendation_id, query_id, user_id, terrain_id, tractor_id, implement_id,
		       compatibility_score, observations, work_type, created_at
		FROM recommendation ` + where + `
		ORDER BY created_at DESC, recommendation_id DESC
		LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(limitPos+1)

	items := []models.Recommendation{}
	if err := s.db.SelectContext(ctx, &items, query, listArgs...); err != nil {
		return nil, apperr.FromPG(err)
	}

	return &Page[models.Recommendation]{
		Items: items, Page: page, Limit: limit,
		Total: total, TotalPages: totalPages(total, limit),
	}, nil
}

// GetRecommendation point-reads one recommendation. Absent rows answer
// not-found; rows owned by someone else answer forbidden, admins
// excepted.
func (s *Store) GetRecommendation(ctx context.Context, id int64, ident auth.Identity) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := s.db.GetContext(ctx, &rec, `
		SELECT recommendation_id, query_id, user_id, terrain_id, tractor_id, implement_id,
		       compatibility_score, observations, work_type, created_at
		FROM recommendation WHERE recommendation_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Recomendación no encontrada")
	}
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	if rec.UserID != ident.UserID && !ident.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "No tiene acceso a esta recomendación")
	}
	return &rec, nil
}
