package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyboost/tutor-market-api/internal/models"
)

const userColumns = `id, name, email, phone, role, avatar, password_hash, active, verified,
	login_attempts, locked_until, last_login,
	subjects, experience, price, rating, reviews_count, detailed_ratings,
	certifications, teaching_style, description, availability,
	grade, target_score, weak_subjects, study_goals, created_at, updated_at`

// UserRepository provides database access for user accounts and profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user row. The ID is assigned here when empty.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `INSERT INTO users (
		id, name, email, phone, role, avatar, password_hash, active, verified,
		login_attempts, locked_until, last_login,
		subjects, experience, price, rating, reviews_count, detailed_ratings,
		certifications, teaching_style, description, availability,
		grade, target_score, weak_subjects, study_goals, created_at, updated_at
	) VALUES (
		:id, :name, :email, :phone, :role, :avatar, :password_hash, :active, :verified,
		:login_attempts, :locked_until, :last_login,
		:subjects, :experience, :price, :rating, :reviews_count, :detailed_ratings,
		:certifications, :teaching_style, :description, :availability,
		:grade, :target_score, :weak_subjects, :study_goals, :created_at, :updated_at
	)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateLoginState persists the failed-attempt counter and lockout deadline.
// Called on every failed login so the counter survives across requests.
func (r *UserRepository) UpdateLoginState(ctx context.Context, id string, attempts int, lockedUntil *time.Time) error {
	const query = `UPDATE users SET login_attempts = $2, locked_until = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, attempts, lockedUntil, time.Now().UTC()); err != nil {
		return fmt.Errorf("update login state: %w", err)
	}
	return nil
}

// RecordLogin clears lockout state and stamps last_login after a successful
// authentication.
func (r *UserRepository) RecordLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET login_attempts = 0, locked_until = NULL, last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ResetPassword replaces the hash and clears any lockout state in one write.
func (r *UserRepository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, login_attempts = 0, locked_until = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// UpdateTeacherRating writes back the recomputed review aggregates.
func (r *UserRepository) UpdateTeacherRating(ctx context.Context, teacherID string, stats models.RatingStats) error {
	detailed := models.DetailedRatings{
		Teaching:      stats.Teaching,
		Patience:      stats.Patience,
		Communication: stats.Communication,
		Effectiveness: stats.Effectiveness,
	}
	const query = `UPDATE users SET rating = $2, reviews_count = $3, detailed_ratings = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, teacherID, stats.Overall, stats.Count, detailed, time.Now().UTC()); err != nil {
		return fmt.Errorf("update teacher rating: %w", err)
	}
	return nil
}

// ListTeachers returns teachers matching the filter with total count.
func (r *UserRepository) ListTeachers(ctx context.Context, filter models.TeacherFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE role = 'teacher'`
	var conditions []string
	var args []interface{}

	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(subjects)", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d OR teaching_style ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"rating":     true,
		"price":      true,
		"experience": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "rating"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, baseQuery, sortBy, sortOrder, pageSize, offset)
	var teachers []models.User
	if err := r.db.SelectContext(ctx, &teachers, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// ListByRole returns users of the given role, newest first.
func (r *UserRepository) ListByRole(ctx context.Context, role models.Role, page, pageSize int) ([]models.User, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s FROM users WHERE role = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d", userColumns, pageSize, offset)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, string(role)); err != nil {
		return nil, 0, fmt.Errorf("list users by role: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)); err != nil {
		return nil, 0, fmt.Errorf("count users by role: %w", err)
	}

	return users, total, nil
}

// CountByRole returns the number of users holding the given role.
func (r *UserRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return total, nil
}

// SubjectDistribution returns each taught subject with its teacher count,
// most common first.
func (r *UserRepository) SubjectDistribution(ctx context.Context) ([]models.SubjectCount, error) {
	const query = `SELECT s AS subject, COUNT(*) AS count
		FROM users, unnest(subjects) AS s
		WHERE role = 'teacher'
		GROUP BY s
		ORDER BY count DESC, subject ASC`
	var counts []models.SubjectCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("subject distribution: %w", err)
	}
	return counts, nil
}
