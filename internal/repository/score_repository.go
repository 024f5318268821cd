package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyboost/tutor-market-api/internal/models"
)

const scoreColumns = `id, student_id, teacher_id, subject, test_type, before_score,
	after_score, max_score, lesson_count, notes, record_date, created_at`

// ScoreRepository provides database access for score records.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new instance of ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Create inserts a new score record row.
func (r *ScoreRepository) Create(ctx context.Context, record *models.ScoreRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.RecordDate.IsZero() {
		record.RecordDate = now
	}
	record.CreatedAt = now

	const query = `INSERT INTO score_records (
		id, student_id, teacher_id, subject, test_type, before_score,
		after_score, max_score, lesson_count, notes, record_date, created_at
	) VALUES (
		:id, :student_id, :teacher_id, :subject, :test_type, :before_score,
		:after_score, :max_score, :lesson_count, :notes, :record_date, :created_at
	)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create score record: %w", err)
	}
	return nil
}

// ListByStudent returns a student's score records in date order, oldest
// first. Date order matters to the improvement-percent computation.
func (r *ScoreRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ScoreRecord, error) {
	query := `SELECT ` + scoreColumns + ` FROM score_records WHERE student_id = $1 ORDER BY record_date ASC, created_at ASC`
	var records []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list score records by student: %w", err)
	}
	return records, nil
}

// ListByTeacher returns all score records attributed to a teacher.
func (r *ScoreRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ScoreRecord, error) {
	query := `SELECT ` + scoreColumns + ` FROM score_records WHERE teacher_id = $1 ORDER BY record_date ASC, created_at ASC`
	var records []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		return nil, fmt.Errorf("list score records by teacher: %w", err)
	}
	return records, nil
}

// ListBySubject returns all score records for one subject across teachers.
func (r *ScoreRepository) ListBySubject(ctx context.Context, subject string) ([]models.ScoreRecord, error) {
	query := `SELECT ` + scoreColumns + ` FROM score_records WHERE subject = $1 ORDER BY record_date ASC, created_at ASC`
	var records []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &records, query, subject); err != nil {
		return nil, fmt.Errorf("list score records by subject: %w", err)
	}
	return records, nil
}

// ListAll returns every score record; used by the platform overview.
func (r *ScoreRepository) ListAll(ctx context.Context) ([]models.ScoreRecord, error) {
	query := `SELECT ` + scoreColumns + ` FROM score_records ORDER BY record_date ASC, created_at ASC`
	var records []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list score records: %w", err)
	}
	return records, nil
}
