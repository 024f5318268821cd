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

type mockAnalyticsScores struct {
	records []models.ScoreRecord
}

func (m *mockAnalyticsScores) filter(test func(models.ScoreRecord) bool) []models.ScoreRecord {
	var out []models.ScoreRecord
	for _, r := range m.records {
		if test(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *mockAnalyticsScores) ListByStudent(ctx context.Context, studentID string) ([]models.ScoreRecord, error) {
	return m.filter(func(r models.ScoreRecord) bool { return r.StudentID == studentID }), nil
}

func (m *mockAnalyticsScores) ListByTeacher(ctx context.Context, teacherID string) ([]models.ScoreRecord, error) {
	return m.filter(func(r models.ScoreRecord) bool { return r.TeacherID == teacherID }), nil
}

func (m *mockAnalyticsScores) ListBySubject(ctx context.Context, subject string) ([]models.ScoreRecord, error) {
	return m.filter(func(r models.ScoreRecord) bool { return r.Subject == subject }), nil
}

func (m *mockAnalyticsScores) ListAll(ctx context.Context) ([]models.ScoreRecord, error) {
	return m.records, nil
}

type mockAnalyticsUsers struct {
	users        map[string]*models.User
	counts       map[models.Role]int
	distribution []models.SubjectCount
}

func (m *mockAnalyticsUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAnalyticsUsers) CountByRole(ctx context.Context, role models.Role) (int, error) {
	return m.counts[role], nil
}

func (m *mockAnalyticsUsers) ListByRole(ctx context.Context, role models.Role, page, pageSize int) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *mockAnalyticsUsers) SubjectDistribution(ctx context.Context) ([]models.SubjectCount, error) {
	return m.distribution, nil
}

type mockAnalyticsReviews struct {
	recommended int
	total       int
	avgOverall  float64
}

func (m *mockAnalyticsReviews) RecommendationStats(ctx context.Context, teacherID string) (int, int, error) {
	return m.recommended, m.total, nil
}

func (m *mockAnalyticsReviews) OverallStats(ctx context.Context) (int, float64, error) {
	return m.total, m.avgOverall, nil
}

func scoreRecord(student, teacher, subject string, before, after float64, lessons int, day int) models.ScoreRecord {
	return models.ScoreRecord{
		StudentID:   student,
		TeacherID:   teacher,
		Subject:     subject,
		BeforeScore: before,
		AfterScore:  after,
		MaxScore:    150,
		LessonCount: lessons,
		RecordDate:  time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func newAnalyticsService(scores *mockAnalyticsScores, users *mockAnalyticsUsers, reviews *mockAnalyticsReviews) *AnalyticsService {
	if users == nil {
		users = &mockAnalyticsUsers{users: map[string]*models.User{}}
	}
	if reviews == nil {
		reviews = &mockAnalyticsReviews{}
	}
	return NewAnalyticsService(scores, users, reviews, nil, zap.NewNop())
}

func TestStudentAnalyticsSingleSubject(t *testing.T) {
	scores := &mockAnalyticsScores{records: []models.ScoreRecord{
		scoreRecord("s1", "t1", "Math", 85, 95, 4, 1),
		scoreRecord("s1", "t1", "Math", 95, 110, 6, 15),
	}}
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
	}}
	svc := newAnalyticsService(scores, users, nil)

	result, err := svc.StudentAnalytics(context.Background(), "s1", models.RoleStudent, "s1")
	require.NoError(t, err)

	assert.Equal(t, 25.0, result.TotalImprovement)
	assert.Equal(t, 10, result.TotalLessons)
	assert.Equal(t, 1, result.SubjectsCount)

	math, ok := result.ImprovementsBySubject["Math"]
	require.True(t, ok)
	assert.Equal(t, 25.0, math.TotalImprovement)
	assert.Equal(t, 12.5, math.AverageImprovement)
	assert.Equal(t, 29.4, math.ImprovementPercent)
	assert.Equal(t, 85.0, math.InitialScore)
	assert.Equal(t, 110.0, math.LatestScore)
	assert.Equal(t, 2, math.RecordCount)
}

func TestStudentAnalyticsNoRecords(t *testing.T) {
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
	}}
	svc := newAnalyticsService(&mockAnalyticsScores{}, users, nil)

	result, err := svc.StudentAnalytics(context.Background(), "s1", models.RoleStudent, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.TotalImprovement)
	assert.Equal(t, 0, result.TotalLessons)
	assert.Equal(t, 0, result.SubjectsCount)
	assert.NotNil(t, result.ImprovementsBySubject)
	assert.Empty(t, result.ImprovementsBySubject)
}

func TestStudentAnalyticsZeroInitialScore(t *testing.T) {
	scores := &mockAnalyticsScores{records: []models.ScoreRecord{
		scoreRecord("s1", "t1", "Physics", 0, 40, 2, 1),
	}}
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
	}}
	svc := newAnalyticsService(scores, users, nil)

	result, err := svc.StudentAnalytics(context.Background(), "s1", models.RoleStudent, "s1")
	require.NoError(t, err)
	physics := result.ImprovementsBySubject["Physics"]
	assert.Equal(t, 0.0, physics.ImprovementPercent)
	assert.Equal(t, 40.0, physics.TotalImprovement)
}

func TestStudentAnalyticsTotalRoundsOnce(t *testing.T) {
	// Two subjects each improving 0.04: the per-subject summaries round to
	// 0.0 but the overall total must come from the unrounded sum, 0.08,
	// rounded once to 0.1.
	scores := &mockAnalyticsScores{records: []models.ScoreRecord{
		scoreRecord("s1", "t1", "Math", 80, 80.04, 1, 1),
		scoreRecord("s1", "t1", "Physics", 60, 60.04, 1, 2),
	}}
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
	}}
	svc := newAnalyticsService(scores, users, nil)

	result, err := svc.StudentAnalytics(context.Background(), "s1", models.RoleStudent, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0.1, result.TotalImprovement)
	assert.Equal(t, 0.0, result.ImprovementsBySubject["Math"].TotalImprovement)
	assert.Equal(t, 0.0, result.ImprovementsBySubject["Physics"].TotalImprovement)
}

func TestStudentAnalyticsRejectsNonStudentTarget(t *testing.T) {
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"t1": {ID: "t1", Role: models.RoleTeacher},
	}}
	svc := newAnalyticsService(&mockAnalyticsScores{}, users, nil)

	_, err := svc.StudentAnalytics(context.Background(), "admin", models.RoleAdmin, "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentAnalyticsForbiddenForOtherStudent(t *testing.T) {
	svc := newAnalyticsService(&mockAnalyticsScores{}, nil, nil)

	_, err := svc.StudentAnalytics(context.Background(), "s2", models.RoleStudent, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTeacherAnalytics(t *testing.T) {
	scores := &mockAnalyticsScores{records: []models.ScoreRecord{
		scoreRecord("s1", "t1", "Math", 85, 95, 4, 1),
		scoreRecord("s2", "t1", "Math", 70, 90, 5, 2),
		scoreRecord("s1", "t1", "Physics", 50, 60, 3, 3),
	}}
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"t1": {ID: "t1", Role: models.RoleTeacher},
	}}
	reviews := &mockAnalyticsReviews{recommended: 2, total: 3}
	svc := newAnalyticsService(scores, users, reviews)

	result, err := svc.TeacherAnalytics(context.Background(), "t1", models.RoleTeacher, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.StudentsCount)
	assert.Equal(t, 12, result.TotalLessons)
	assert.Equal(t, 13.3, result.AverageImprovement)
	assert.Equal(t, 66.7, result.RecommendationRate)
	assert.Equal(t, 3, result.TotalReviews)
}

func TestTeacherAnalyticsRejectsNonTeacherTarget(t *testing.T) {
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
	}}
	svc := newAnalyticsService(&mockAnalyticsScores{}, users, nil)

	_, err := svc.TeacherAnalytics(context.Background(), "admin", models.RoleAdmin, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherAnalyticsForbiddenForStudents(t *testing.T) {
	svc := newAnalyticsService(&mockAnalyticsScores{}, nil, nil)

	_, err := svc.TeacherAnalytics(context.Background(), "s1", models.RoleStudent, "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubjectAnalyticsSuccessRate(t *testing.T) {
	scores := &mockAnalyticsScores{records: []models.ScoreRecord{
		scoreRecord("s1", "t1", "Math", 85, 95, 4, 1),
		scoreRecord("s2", "t2", "Math", 70, 90, 5, 2),
		scoreRecord("s3", "t1", "Math", 60, 65, 2, 3),
		scoreRecord("s1", "t1", "Physics", 50, 60, 3, 4),
	}}
	svc := newAnalyticsService(scores, nil, nil)

	result, err := svc.SubjectAnalytics(context.Background(), "Math")
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalStudents)
	assert.Equal(t, 2, result.TotalTeachers)
	assert.Equal(t, 11, result.TotalLessons)
	assert.Equal(t, 11.7, result.AverageImprovement)
	// Two of three records improved by at least ten points.
	assert.Equal(t, 66.7, result.SuccessRate)
	assert.Equal(t, 3, result.TotalRecords)
}

func TestPlatformOverview(t *testing.T) {
	scores := &mockAnalyticsScores{records: []models.ScoreRecord{
		scoreRecord("s1", "t1", "Math", 85, 95, 4, 1),
		scoreRecord("s2", "t2", "Physics", 70, 90, 5, 2),
	}}
	users := &mockAnalyticsUsers{
		users:  map[string]*models.User{},
		counts: map[models.Role]int{models.RoleTeacher: 2, models.RoleStudent: 10},
		distribution: []models.SubjectCount{
			{Subject: "Math", Count: 2},
			{Subject: "Physics", Count: 1},
		},
	}
	reviews := &mockAnalyticsReviews{total: 5, avgOverall: 4.4333}
	svc := newAnalyticsService(scores, users, reviews)

	overview, err := svc.PlatformOverview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, overview.PlatformStats.TotalTeachers)
	assert.Equal(t, 10, overview.PlatformStats.TotalStudents)
	assert.Equal(t, 9, overview.PlatformStats.TotalLessons)
	assert.Equal(t, 5, overview.PlatformStats.TotalReviews)
	assert.Equal(t, 2, overview.PlatformStats.TotalScoreRecords)
	assert.Equal(t, 15.0, overview.PerformanceStats.AverageImprovement)
	assert.Equal(t, 4.4, overview.PerformanceStats.AverageRating)
	assert.Equal(t, 2, overview.PerformanceStats.ActiveSubjects)
	assert.Equal(t, map[string]int{"Math": 2, "Physics": 1}, overview.SubjectDistribution)
}

func TestMyAnalyticsDispatch(t *testing.T) {
	scores := &mockAnalyticsScores{}
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
		"t1": {ID: "t1", Role: models.RoleTeacher},
	}}
	svc := newAnalyticsService(scores, users, nil)

	studentResult, err := svc.MyAnalytics(context.Background(), "s1", models.RoleStudent)
	require.NoError(t, err)
	_, ok := studentResult.(*models.StudentAnalytics)
	assert.True(t, ok)

	teacherResult, err := svc.MyAnalytics(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	_, ok = teacherResult.(*models.TeacherAnalytics)
	assert.True(t, ok)

	adminResult, err := svc.MyAnalytics(context.Background(), "a1", models.RoleAdmin)
	require.NoError(t, err)
	_, ok = adminResult.(*models.PlatformOverview)
	assert.True(t, ok)
}

func TestListStudents(t *testing.T) {
	users := &mockAnalyticsUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Name: "Student One", Email: "s1@example.com", Role: models.RoleStudent},
		"s2": {ID: "s2", Name: "Student Two", Email: "s2@example.com", Role: models.RoleStudent},
		"t1": {ID: "t1", Name: "Teacher One", Email: "t1@example.com", Role: models.RoleTeacher},
	}}
	svc := newAnalyticsService(&mockAnalyticsScores{}, users, nil)

	students, pagination, err := svc.ListStudents(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, students, 2)
	for _, s := range students {
		assert.Equal(t, models.RoleStudent, s.Role)
		assert.NotEmpty(t, s.Email)
	}
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 100, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestOverviewReport(t *testing.T) {
	scores := &mockAnalyticsScores{records: []models.ScoreRecord{
		scoreRecord("s1", "t1", "Math", 85, 95, 4, 1),
	}}
	users := &mockAnalyticsUsers{
		users:        map[string]*models.User{},
		counts:       map[models.Role]int{models.RoleTeacher: 1, models.RoleStudent: 1},
		distribution: []models.SubjectCount{{Subject: "Math", Count: 1}},
	}
	svc := newAnalyticsService(scores, users, &mockAnalyticsReviews{})

	report, err := svc.OverviewReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Platform Overview", report.Title)
	assert.Equal(t, []string{"Metric", "Value"}, report.Columns)
	assert.NotEmpty(t, report.Rows)
}
