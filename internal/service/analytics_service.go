package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/studyboost/tutor-market-api/internal/models"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
	"github.com/studyboost/tutor-market-api/pkg/export"
)

// successThreshold is the minimum score improvement for a record to count
// toward a subject's success rate.
const successThreshold = 10.0

type analyticsScoreRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ScoreRecord, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ScoreRecord, error)
	ListBySubject(ctx context.Context, subject string) ([]models.ScoreRecord, error)
	ListAll(ctx context.Context) ([]models.ScoreRecord, error)
}

type analyticsUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
	ListByRole(ctx context.Context, role models.Role, page, pageSize int) ([]models.User, int, error)
	SubjectDistribution(ctx context.Context) ([]models.SubjectCount, error)
}

type analyticsReviewRepository interface {
	RecommendationStats(ctx context.Context, teacherID string) (recommended, total int, err error)
	OverallStats(ctx context.Context) (count int, avgOverall float64, err error)
}

// AnalyticsService computes the improvement roll-ups for students, teachers,
// subjects and the platform. Fractional results are rounded to one decimal
// place here, at the reporting boundary, never earlier.
type AnalyticsService struct {
	scores  analyticsScoreRepository
	users   analyticsUserRepository
	reviews analyticsReviewRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAnalyticsService constructs an AnalyticsService instance.
func NewAnalyticsService(scores analyticsScoreRepository, users analyticsUserRepository, reviews analyticsReviewRepository, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{scores: scores, users: users, reviews: reviews, metrics: metrics, logger: logger}
}

// StudentAnalytics groups a student's score records by subject. A student
// with no records gets a well-formed all-zero result.
func (s *AnalyticsService) StudentAnalytics(ctx context.Context, viewerID string, viewerRole models.Role, studentID string) (*models.StudentAnalytics, error) {
	if !viewerRole.CanViewStudentAnalytics(viewerID, studentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this student's analytics")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	start := time.Now()
	records, err := s.scores.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score records")
	}
	s.metrics.ObserveDBQuery("analytics_student_scores", time.Since(start))

	result := &models.StudentAnalytics{
		StudentID:             studentID,
		ImprovementsBySubject: map[string]models.SubjectImprovement{},
	}

	bySubject := map[string][]models.ScoreRecord{}
	for _, r := range records {
		bySubject[r.Subject] = append(bySubject[r.Subject], r)
	}

	rawTotal := 0.0
	for subject, subjectRecords := range bySubject {
		imp, raw := summariseSubject(subject, subjectRecords)
		result.ImprovementsBySubject[subject] = imp
		rawTotal += raw
		result.TotalLessons += imp.LessonCount
	}
	result.TotalImprovement = round1(rawTotal)
	result.SubjectsCount = len(bySubject)

	return result, nil
}

// TeacherAnalytics measures a teacher's effectiveness across all students.
func (s *AnalyticsService) TeacherAnalytics(ctx context.Context, viewerID string, viewerRole models.Role, teacherID string) (*models.TeacherAnalytics, error) {
	if !viewerRole.CanViewTeacherAnalytics(viewerID, teacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this teacher's analytics")
	}

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

	start := time.Now()
	records, err := s.scores.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score records")
	}
	s.metrics.ObserveDBQuery("analytics_teacher_scores", time.Since(start))

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

	recommended, totalReviews, err := s.reviews.RecommendationStats(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review stats")
	}
	recommendationRate := 0.0
	if totalReviews > 0 {
		recommendationRate = round1(float64(recommended) / float64(totalReviews) * 100)
	}

	return &models.TeacherAnalytics{
		TeacherID:          teacherID,
		StudentsCount:      len(students),
		AverageImprovement: avgImprovement,
		TotalLessons:       totalLessons,
		RecommendationRate: recommendationRate,
		TotalReviews:       totalReviews,
	}, nil
}

// SubjectAnalytics rolls up one subject across all teachers and students.
func (s *AnalyticsService) SubjectAnalytics(ctx context.Context, subject string) (*models.SubjectAnalytics, error) {
	start := time.Now()
	records, err := s.scores.ListBySubject(ctx, subject)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score records")
	}
	s.metrics.ObserveDBQuery("analytics_subject_scores", time.Since(start))

	students := map[string]struct{}{}
	teachers := map[string]struct{}{}
	totalLessons := 0
	totalImprovement := 0.0
	successful := 0
	for _, r := range records {
		students[r.StudentID] = struct{}{}
		teachers[r.TeacherID] = struct{}{}
		totalLessons += r.LessonCount
		totalImprovement += r.Improvement()
		if r.Improvement() >= successThreshold {
			successful++
		}
	}

	avgImprovement := 0.0
	successRate := 0.0
	if len(records) > 0 {
		avgImprovement = round1(totalImprovement / float64(len(records)))
		successRate = round1(float64(successful) / float64(len(records)) * 100)
	}

	return &models.SubjectAnalytics{
		Subject:            subject,
		TotalStudents:      len(students),
		TotalTeachers:      len(teachers),
		TotalLessons:       totalLessons,
		AverageImprovement: avgImprovement,
		SuccessRate:        successRate,
		TotalRecords:       len(records),
	}, nil
}

// PlatformOverview builds the admin-facing site-wide summary.
func (s *AnalyticsService) PlatformOverview(ctx context.Context) (*models.PlatformOverview, error) {
	totalTeachers, err := s.users.CountByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	totalStudents, err := s.users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	start := time.Now()
	records, err := s.scores.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score records")
	}
	s.metrics.ObserveDBQuery("analytics_all_scores", time.Since(start))
	totalLessons := 0
	totalImprovement := 0.0
	for _, r := range records {
		totalLessons += r.LessonCount
		totalImprovement += r.Improvement()
	}
	avgImprovement := 0.0
	if len(records) > 0 {
		avgImprovement = round1(totalImprovement / float64(len(records)))
	}

	totalReviews, avgRating, err := s.reviews.OverallStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review stats")
	}

	distribution, err := s.users.SubjectDistribution(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject distribution")
	}
	subjectCounts := map[string]int{}
	for _, d := range distribution {
		subjectCounts[d.Subject] = d.Count
	}

	return &models.PlatformOverview{
		PlatformStats: models.PlatformStats{
			TotalTeachers:     totalTeachers,
			TotalStudents:     totalStudents,
			TotalLessons:      totalLessons,
			TotalReviews:      totalReviews,
			TotalScoreRecords: len(records),
		},
		PerformanceStats: models.PerformanceStats{
			AverageImprovement: avgImprovement,
			AverageRating:      round1(avgRating),
			ActiveSubjects:     len(subjectCounts),
		},
		SubjectDistribution: subjectCounts,
	}, nil
}

// MyAnalytics dispatches on the caller's role: students get their own
// improvement roll-up, teachers their effectiveness summary, admins the
// platform overview.
func (s *AnalyticsService) MyAnalytics(ctx context.Context, userID string, role models.Role) (interface{}, error) {
	switch role {
	case models.RoleStudent:
		return s.StudentAnalytics(ctx, userID, role, userID)
	case models.RoleTeacher:
		return s.TeacherAnalytics(ctx, userID, role, userID)
	case models.RoleAdmin:
		return s.PlatformOverview(ctx)
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
}

// ListStudents returns the admin-facing student directory, paged.
func (s *AnalyticsService) ListStudents(ctx context.Context, page, pageSize int) ([]models.StudentSummary, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 100
	}

	users, total, err := s.users.ListByRole(ctx, models.RoleStudent, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	summaries := make([]models.StudentSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, models.StudentSummary{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		})
	}

	return summaries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// OverviewReport renders the platform overview as an exportable report.
func (s *AnalyticsService) OverviewReport(ctx context.Context) (*export.Report, error) {
	overview, err := s.PlatformOverview(ctx)
	if err != nil {
		return nil, err
	}

	report := &export.Report{
		Title:   "Platform Overview",
		Columns: []string{"Metric", "Value"},
	}
	addRow := func(metric, value string) {
		report.Rows = append(report.Rows, map[string]string{"Metric": metric, "Value": value})
	}
	addRow("Generated At", time.Now().UTC().Format(time.RFC3339))
	addRow("Total Teachers", fmt.Sprintf("%d", overview.PlatformStats.TotalTeachers))
	addRow("Total Students", fmt.Sprintf("%d", overview.PlatformStats.TotalStudents))
	addRow("Total Lessons", fmt.Sprintf("%d", overview.PlatformStats.TotalLessons))
	addRow("Total Reviews", fmt.Sprintf("%d", overview.PlatformStats.TotalReviews))
	addRow("Total Score Records", fmt.Sprintf("%d", overview.PlatformStats.TotalScoreRecords))
	addRow("Average Improvement", fmt.Sprintf("%.1f", overview.PerformanceStats.AverageImprovement))
	addRow("Average Rating", fmt.Sprintf("%.1f", overview.PerformanceStats.AverageRating))
	addRow("Active Subjects", fmt.Sprintf("%d", overview.PerformanceStats.ActiveSubjects))

	subjects := make([]string, 0, len(overview.SubjectDistribution))
	for subject := range overview.SubjectDistribution {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	for _, subject := range subjects {
		addRow("Teachers: "+subject, fmt.Sprintf("%d", overview.SubjectDistribution[subject]))
	}

	return report, nil
}

// summariseSubject folds one subject's records, already in date order, into
// its improvement summary. The percent compares the latest after-score to
// the first before-score; a non-positive starting score yields zero. The
// second return value is the unrounded improvement total so callers can
// roll subjects up without compounding rounding error.
func summariseSubject(subject string, records []models.ScoreRecord) (models.SubjectImprovement, float64) {
	imp := models.SubjectImprovement{Subject: subject, RecordCount: len(records)}
	if len(records) == 0 {
		return imp, 0
	}

	total := 0.0
	for _, r := range records {
		total += r.Improvement()
		imp.LessonCount += r.LessonCount
	}

	first := records[0]
	latest := records[len(records)-1]
	imp.InitialScore = first.BeforeScore
	imp.LatestScore = latest.AfterScore
	imp.TotalImprovement = round1(total)
	imp.AverageImprovement = round1(total / float64(len(records)))
	if first.BeforeScore > 0 {
		imp.ImprovementPercent = round1((latest.AfterScore - first.BeforeScore) / first.BeforeScore * 100)
	}
	return imp, total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
