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

type scoreRepository interface {
	Create(ctx context.Context, record *models.ScoreRecord) error
	ListByStudent(ctx context.Context, studentID string) ([]models.ScoreRecord, error)
}

type scoreUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ScoreService records before/after assessment results.
type ScoreService struct {
	repo      scoreRepository
	users     scoreUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs a ScoreService instance.
func NewScoreService(repo scoreRepository, users scoreUserRepository, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScoreService{repo: repo, users: users, validator: validate, logger: logger}
}

// Create records an assessment for a student under a teacher.
func (s *ScoreService) Create(ctx context.Context, req models.ScoreRecordCreateRequest) (*models.ScoreRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if req.BeforeScore > req.MaxScore || req.AfterScore > req.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scores cannot exceed the maximum score")
	}

	if err := s.requireRole(ctx, req.StudentID, models.RoleStudent, "student"); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, req.TeacherID, models.RoleTeacher, "teacher"); err != nil {
		return nil, err
	}

	record := &models.ScoreRecord{
		StudentID:   req.StudentID,
		TeacherID:   req.TeacherID,
		Subject:     req.Subject,
		TestType:    req.TestType,
		BeforeScore: req.BeforeScore,
		AfterScore:  req.AfterScore,
		MaxScore:    req.MaxScore,
		LessonCount: req.LessonCount,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create score record")
	}

	s.logger.Info("score record created", zap.String("student_id", record.StudentID), zap.String("subject", record.Subject))
	return record, nil
}

// ListByStudent returns a student's records in date order.
func (s *ScoreService) ListByStudent(ctx context.Context, studentID string) ([]models.ScoreRecord, error) {
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list score records")
	}
	return records, nil
}

func (s *ScoreService) requireRole(ctx context.Context, userID string, role models.Role, label string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, label+" not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+label)
	}
	if user.Role != role {
		return appErrors.Clone(appErrors.ErrValidation, "user is not a "+label)
	}
	return nil
}
