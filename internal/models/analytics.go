package models

// SubjectImprovement summarises a student's progress in one subject.
type SubjectImprovement struct {
	Subject            string  `json:"subject"`
	TotalImprovement   float64 `json:"total_improvement"`
	AverageImprovement float64 `json:"average_improvement"`
	ImprovementPercent float64 `json:"improvement_percent"`
	RecordCount        int     `json:"record_count"`
	LessonCount        int     `json:"lesson_count"`
	InitialScore       float64 `json:"initial_score"`
	LatestScore        float64 `json:"latest_score"`
}

// StudentSummary is one entry in the admin-facing student directory.
type StudentSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// StudentAnalytics is the per-student improvement roll-up.
type StudentAnalytics struct {
	StudentID             string                        `json:"student_id"`
	TotalImprovement      float64                       `json:"total_improvement"`
	TotalLessons          int                           `json:"total_lessons"`
	SubjectsCount         int                           `json:"subjects_count"`
	ImprovementsBySubject map[string]SubjectImprovement `json:"improvements_by_subject"`
}

// TeacherAnalytics is the per-teacher effectiveness roll-up.
type TeacherAnalytics struct {
	TeacherID          string  `json:"teacher_id"`
	StudentsCount      int     `json:"students_count"`
	AverageImprovement float64 `json:"average_improvement"`
	TotalLessons       int     `json:"total_lessons"`
	RecommendationRate float64 `json:"recommendation_rate"`
	TotalReviews       int     `json:"total_reviews"`
}

// SubjectAnalytics summarises one subject across all teachers.
type SubjectAnalytics struct {
	Subject            string  `json:"subject"`
	TotalStudents      int     `json:"total_students"`
	TotalTeachers      int     `json:"total_teachers"`
	TotalLessons       int     `json:"total_lessons"`
	AverageImprovement float64 `json:"average_improvement"`
	SuccessRate        float64 `json:"success_rate"`
	TotalRecords       int     `json:"total_records"`
}

// TeacherStats combines review ratings with teaching effectiveness, as
// surfaced on the public teacher page.
type TeacherStats struct {
	TeacherID     string        `json:"teacher_id"`
	RatingStats   RatingStats   `json:"rating_stats"`
	TeachingStats TeachingStats `json:"teaching_stats"`
}

// TeachingStats is the score-record portion of TeacherStats.
type TeachingStats struct {
	TotalStudents     int     `json:"total_students"`
	TotalLessons      int     `json:"total_lessons"`
	AvgImprovement    float64 `json:"avg_improvement"`
	TotalScoreRecords int     `json:"total_score_records"`
}

// PlatformOverview is the admin-facing site-wide roll-up.
type PlatformOverview struct {
	PlatformStats       PlatformStats    `json:"platform_stats"`
	PerformanceStats    PerformanceStats `json:"performance_stats"`
	SubjectDistribution map[string]int   `json:"subject_distribution"`
}

// PlatformStats counts the primary record kinds.
type PlatformStats struct {
	TotalTeachers     int `json:"total_teachers"`
	TotalStudents     int `json:"total_students"`
	TotalLessons      int `json:"total_lessons"`
	TotalReviews      int `json:"total_reviews"`
	TotalScoreRecords int `json:"total_score_records"`
}

// PerformanceStats carries the platform-wide quality aggregates.
type PerformanceStats struct {
	AverageImprovement float64 `json:"average_improvement"`
	AverageRating      float64 `json:"average_rating"`
	ActiveSubjects     int     `json:"active_subjects"`
}
