package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyboost/tutor-market-api/internal/models"
)

const reviewColumns = `id, appointment_id, teacher_id, student_id, student_name, ratings,
	comment, is_recommended, tags, review_date, created_at`

// ReviewRepository provides database access for teacher reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new instance of ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review row.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if review.ReviewDate.IsZero() {
		review.ReviewDate = now
	}
	review.CreatedAt = now

	const query = `INSERT INTO reviews (
		id, appointment_id, teacher_id, student_id, student_name, ratings,
		comment, is_recommended, tags, review_date, created_at
	) VALUES (
		:id, :appointment_id, :teacher_id, :student_id, :student_name, :ratings,
		:comment, :is_recommended, :tags, :review_date, :created_at
	)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// FindByID returns a review by identifier.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 LIMIT 1`
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find review by id: %w", err)
	}
	return &review, nil
}

// FindByAppointment returns the review attached to an appointment, or
// sql.ErrNoRows when none exists yet.
func (r *ReviewRepository) FindByAppointment(ctx context.Context, appointmentID string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE appointment_id = $1 LIMIT 1`
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, appointmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find review by appointment: %w", err)
	}
	return &review, nil
}

// ListByTeacher returns a teacher's reviews, newest first, with total count.
func (r *ReviewRepository) ListByTeacher(ctx context.Context, teacherID string, page, pageSize int) ([]models.Review, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s FROM reviews WHERE teacher_id = $1 ORDER BY review_date DESC LIMIT %d OFFSET %d", reviewColumns, pageSize, offset)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, listQuery, teacherID); err != nil {
		return nil, 0, fmt.Errorf("list reviews by teacher: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews WHERE teacher_id = $1`, teacherID); err != nil {
		return nil, 0, fmt.Errorf("count reviews by teacher: %w", err)
	}

	return reviews, total, nil
}

// RatingStats averages each rating dimension across a teacher's reviews.
// Averages are unrounded; callers round at the reporting boundary.
func (r *ReviewRepository) RatingStats(ctx context.Context, teacherID string) (*models.RatingStats, error) {
	const query = `SELECT
		COALESCE(AVG((ratings->>'overall')::float), 0) AS overall,
		COALESCE(AVG((ratings->>'teaching')::float), 0) AS teaching,
		COALESCE(AVG((ratings->>'patience')::float), 0) AS patience,
		COALESCE(AVG((ratings->>'communication')::float), 0) AS communication,
		COALESCE(AVG((ratings->>'effectiveness')::float), 0) AS effectiveness,
		COUNT(*) AS count
	FROM reviews WHERE teacher_id = $1`
	var stats models.RatingStats
	if err := r.db.GetContext(ctx, &stats, query, teacherID); err != nil {
		return nil, fmt.Errorf("rating stats: %w", err)
	}
	return &stats, nil
}

// RecommendationStats returns the recommended and total review counts for a
// teacher.
func (r *ReviewRepository) RecommendationStats(ctx context.Context, teacherID string) (recommended, total int, err error) {
	const query = `SELECT
		COALESCE(SUM(CASE WHEN is_recommended THEN 1 ELSE 0 END), 0) AS recommended,
		COUNT(*) AS total
	FROM reviews WHERE teacher_id = $1`
	row := r.db.QueryRowxContext(ctx, query, teacherID)
	if err := row.Scan(&recommended, &total); err != nil {
		return 0, 0, fmt.Errorf("recommendation stats: %w", err)
	}
	return recommended, total, nil
}

// OverallStats returns the platform-wide review count and mean overall
// rating (unrounded).
func (r *ReviewRepository) OverallStats(ctx context.Context) (count int, avgOverall float64, err error) {
	const query = `SELECT COUNT(*), COALESCE(AVG((ratings->>'overall')::float), 0) FROM reviews`
	row := r.db.QueryRowxContext(ctx, query)
	if err := row.Scan(&count, &avgOverall); err != nil {
		return 0, 0, fmt.Errorf("overall review stats: %w", err)
	}
	return count, avgOverall, nil
}
