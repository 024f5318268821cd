package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyboost/tutor-market-api/internal/models"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
)

type teacherUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListTeachers(ctx context.Context, filter models.TeacherFilter) ([]models.User, int, error)
	SubjectDistribution(ctx context.Context) ([]models.SubjectCount, error)
	UpdateTeacherRating(ctx context.Context, teacherID string, stats models.RatingStats) error
}

type teacherReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id string) (*models.Review, error)
	FindByAppointment(ctx context.Context, appointmentID string) (*models.Review, error)
	ListByTeacher(ctx context.Context, teacherID string, page, pageSize int) ([]models.Review, int, error)
	RatingStats(ctx context.Context, teacherID string) (*models.RatingStats, error)
}

type teacherAppointmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
}

type teacherScoreRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ScoreRecord, error)
}

// TeacherService serves the public teacher catalogue and the review flow.
type TeacherService struct {
	users        teacherUserRepository
	reviews      teacherReviewRepository
	appointments teacherAppointmentRepository
	scores       teacherScoreRepository
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewTeacherService constructs a TeacherService instance.
func NewTeacherService(users teacherUserRepository, reviews teacherReviewRepository, appointments teacherAppointmentRepository, scores teacherScoreRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TeacherService{users: users, reviews: reviews, appointments: appointments, scores: scores, validator: validate, logger: logger}
}

// List returns teachers matching the filter.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.User, int, error) {
	teachers, total, err := s.users.ListTeachers(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, total, nil
}

// Get returns one teacher by ID.
func (s *TeacherService) Get(ctx context.Context, teacherID string) (*models.User, error) {
	teacher, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return teacher, nil
}

// Subjects returns the taught subjects with teacher counts.
func (s *TeacherService) Subjects(ctx context.Context) ([]models.SubjectCount, error) {
	counts, err := s.users.SubjectDistribution(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	return counts, nil
}

// Stats combines the teacher's review averages with their teaching record.
func (s *TeacherService) Stats(ctx context.Context, teacherID string) (*models.TeacherStats, error) {
	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}

	ratings, err := s.reviews.RatingStats(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rating stats")
	}
	rounded := roundRatingStats(*ratings)

	records, err := s.scores.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score records")
	}

	students := map[string]struct{}{}
	totalLessons := 0
	totalImprovement := 0.0
	for _, r := range records {
		students[r.StudentID] = struct{}{}
		totalLessons += r.LessonCount
		totalImprovement += r.Improvement()
	}
	avgImprovement := 0.0
	if len(records) > 0 {
		avgImprovement = round1(totalImprovement / float64(len(records)))
	}

	return &models.TeacherStats{
		TeacherID:   teacherID,
		RatingStats: rounded,
		TeachingStats: models.TeachingStats{
			TotalStudents:     len(students),
			TotalLessons:      totalLessons,
			AvgImprovement:    avgImprovement,
			TotalScoreRecords: len(records),
		},
	}, nil
}

// CreateReview posts a review against a completed appointment and recomputes
// the teacher's stored rating aggregates. One review per appointment.
func (s *TeacherService) CreateReview(ctx context.Context, teacherID string, req models.ReviewCreateRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}

	appt, err := s.appointments.FindByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	if appt.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment does not belong to this teacher")
	}

	if _, err := s.reviews.FindByAppointment(ctx, req.AppointmentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "appointment already has a review")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing review")
	}

	review := &models.Review{
		AppointmentID: req.AppointmentID,
		TeacherID:     teacherID,
		StudentID:     req.StudentID,
		StudentName:   req.StudentName,
		Ratings:       req.Ratings,
		Comment:       req.Comment,
		IsRecommended: req.IsRecommended,
		Tags:          req.Tags,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}

	if err := s.recomputeRating(ctx, teacherID); err != nil {
		s.logger.Warn("failed to refresh teacher rating", zap.String("teacher_id", teacherID), zap.Error(err))
	}

	return review, nil
}

// ListReviews returns a teacher's reviews, newest first.
func (s *TeacherService) ListReviews(ctx context.Context, teacherID string, page, pageSize int) ([]models.Review, int, error) {
	reviews, total, err := s.reviews.ListByTeacher(ctx, teacherID, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, total, nil
}

// GetReview returns one review by ID.
func (s *TeacherService) GetReview(ctx context.Context, reviewID string) (*models.Review, error) {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}
	return review, nil
}

func (s *TeacherService) recomputeRating(ctx context.Context, teacherID string) error {
	stats, err := s.reviews.RatingStats(ctx, teacherID)
	if err != nil {
		return err
	}
	return s.users.UpdateTeacherRating(ctx, teacherID, roundRatingStats(*stats))
}

func roundRatingStats(stats models.RatingStats) models.RatingStats {
	stats.Overall = round1(stats.Overall)
	stats.Teaching = round1(stats.Teaching)
	stats.Patience = round1(stats.Patience)
	stats.Communication = round1(stats.Communication)
	stats.Effectiveness = round1(stats.Effectiveness)
	return stats
}
