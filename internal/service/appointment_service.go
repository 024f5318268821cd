package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyboost/tutor-market-api/internal/models"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
)

type appointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	Update(ctx context.Context, appt *models.Appointment) error
	Delete(ctx context.Context, id string) error
}

type appointmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AppointmentService manages lesson bookings.
type AppointmentService struct {
	repo      appointmentRepository
	users     appointmentUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAppointmentService constructs an AppointmentService instance.
func NewAppointmentService(repo appointmentRepository, users appointmentUserRepository, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AppointmentService{repo: repo, users: users, validator: validate, logger: logger, now: time.Now}
}

// Create books a lesson. The time must be strictly in the future and the
// price is snapshotted from the teacher's current rate unless the request
// overrides it.
func (s *AppointmentService) Create(ctx context.Context, req models.AppointmentCreateRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}

	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	if !req.AppointmentTime.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment time must be in the future")
	}

	lessonType := req.LessonType
	if lessonType == "" {
		lessonType = models.LessonSingle
	}

	price := teacher.Price
	if req.Price != nil {
		price = *req.Price
	}

	appt := &models.Appointment{
		TeacherID:       req.TeacherID,
		StudentID:       req.StudentID,
		StudentName:     req.StudentName,
		Subject:         req.Subject,
		AppointmentTime: req.AppointmentTime,
		Status:          models.AppointmentPending,
		Price:           price,
		Notes:           req.Notes,
		LessonType:      lessonType,
		PackageInfo:     req.PackageInfo,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}

	s.logger.Info("appointment created", zap.String("appointment_id", appt.ID), zap.String("teacher_id", appt.TeacherID))
	return appt, nil
}

// List returns appointments matching the filter.
func (s *AppointmentService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	if filter.Status != "" && !models.AppointmentStatus(filter.Status).Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown appointment status")
	}
	appts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appts, total, nil
}

// Get returns one appointment by ID.
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appt, nil
}

// Update mutates the status and notes of an appointment.
func (s *AppointmentService) Update(ctx context.Context, id string, req models.AppointmentUpdateRequest) (*models.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown appointment status")
		}
		appt.Status = *req.Status
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	return appt, nil
}

// Delete removes a booking. Only pending appointments may be deleted.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status != models.AppointmentPending {
		return appErrors.Clone(appErrors.ErrValidation, "only pending appointments can be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete appointment")
	}
	return nil
}
