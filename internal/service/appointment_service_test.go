package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyboost/tutor-market-api/internal/models"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
)

type mockApptRepo struct {
	appointments map[string]*models.Appointment
	created      *models.Appointment
	deletedID    string
}

func newMockApptRepo(appts ...*models.Appointment) *mockApptRepo {
	m := &mockApptRepo{appointments: map[string]*models.Appointment{}}
	for _, a := range appts {
		m.appointments[a.ID] = a
	}
	return m
}

func (m *mockApptRepo) Create(ctx context.Context, appt *models.Appointment) error {
	appt.ID = "generated"
	m.created = appt
	m.appointments[appt.ID] = appt
	return nil
}

func (m *mockApptRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApptRepo) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var out []models.Appointment
	for _, a := range m.appointments {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockApptRepo) Update(ctx context.Context, appt *models.Appointment) error {
	m.appointments[appt.ID] = appt
	return nil
}

func (m *mockApptRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	delete(m.appointments, id)
	return nil
}

type mockApptUsers struct {
	users map[string]*models.User
}

func (m *mockApptUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func newAppointmentService(repo *mockApptRepo, users *mockApptUsers) *AppointmentService {
	return NewAppointmentService(repo, users, nil, zap.NewNop())
}

func teacherUser() *models.User {
	return &models.User{ID: "t1", Name: "Teacher One", Role: models.RoleTeacher, Price: 350}
}

func TestCreateAppointmentSnapshotsPrice(t *testing.T) {
	repo := newMockApptRepo()
	users := &mockApptUsers{users: map[string]*models.User{"t1": teacherUser()}}
	svc := newAppointmentService(repo, users)

	appt, err := svc.Create(context.Background(), models.AppointmentCreateRequest{
		TeacherID:       "t1",
		StudentName:     "Student One",
		Subject:         "Math",
		AppointmentTime: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 350.0, appt.Price)
	assert.Equal(t, models.AppointmentPending, appt.Status)
	assert.Equal(t, models.LessonSingle, appt.LessonType)
}

func TestCreateAppointmentPriceOverride(t *testing.T) {
	repo := newMockApptRepo()
	users := &mockApptUsers{users: map[string]*models.User{"t1": teacherUser()}}
	svc := newAppointmentService(repo, users)

	override := 200.0
	appt, err := svc.Create(context.Background(), models.AppointmentCreateRequest{
		TeacherID:       "t1",
		StudentName:     "Student One",
		Subject:         "Math",
		AppointmentTime: time.Now().Add(48 * time.Hour),
		Price:           &override,
	})
	require.NoError(t, err)
	assert.Equal(t, 200.0, appt.Price)
}

func TestCreateAppointmentRejectsPastTime(t *testing.T) {
	repo := newMockApptRepo()
	users := &mockApptUsers{users: map[string]*models.User{"t1": teacherUser()}}
	svc := newAppointmentService(repo, users)

	_, err := svc.Create(context.Background(), models.AppointmentCreateRequest{
		TeacherID:       "t1",
		StudentName:     "Student One",
		Subject:         "Math",
		AppointmentTime: time.Now().Add(-time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateAppointmentUnknownTeacher(t *testing.T) {
	repo := newMockApptRepo()
	users := &mockApptUsers{users: map[string]*models.User{}}
	svc := newAppointmentService(repo, users)

	_, err := svc.Create(context.Background(), models.AppointmentCreateRequest{
		TeacherID:       "missing",
		StudentName:     "Student One",
		Subject:         "Math",
		AppointmentTime: time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateAppointmentRejectsStudentAsTeacher(t *testing.T) {
	repo := newMockApptRepo()
	users := &mockApptUsers{users: map[string]*models.User{"s1": {ID: "s1", Role: models.RoleStudent}}}
	svc := newAppointmentService(repo, users)

	_, err := svc.Create(context.Background(), models.AppointmentCreateRequest{
		TeacherID:       "s1",
		StudentName:     "Student One",
		Subject:         "Math",
		AppointmentTime: time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateAppointmentStatus(t *testing.T) {
	appt := &models.Appointment{ID: "a1", Status: models.AppointmentPending}
	repo := newMockApptRepo(appt)
	svc := newAppointmentService(repo, &mockApptUsers{})

	confirmed := models.AppointmentConfirmed
	updated, err := svc.Update(context.Background(), "a1", models.AppointmentUpdateRequest{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, updated.Status)

	bogus := models.AppointmentStatus("postponed")
	_, err = svc.Update(context.Background(), "a1", models.AppointmentUpdateRequest{Status: &bogus})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeleteAppointmentPendingOnly(t *testing.T) {
	pending := &models.Appointment{ID: "a1", Status: models.AppointmentPending}
	confirmed := &models.Appointment{ID: "a2", Status: models.AppointmentConfirmed}
	repo := newMockApptRepo(pending, confirmed)
	svc := newAppointmentService(repo, &mockApptUsers{})

	err := svc.Delete(context.Background(), "a2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", repo.deletedID)
}
