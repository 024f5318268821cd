package models

import "time"

// ScoreRecord is a before/after measurement of a student's performance under
// one teacher for one subject.
type ScoreRecord struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Subject     string    `db:"subject" json:"subject"`
	TestType    string    `db:"test_type" json:"test_type"`
	BeforeScore float64   `db:"before_score" json:"before_score"`
	AfterScore  float64   `db:"after_score" json:"after_score"`
	MaxScore    float64   `db:"max_score" json:"max_score"`
	LessonCount int       `db:"lesson_count" json:"lesson_count"`
	Notes       string    `db:"notes" json:"notes"`
	RecordDate  time.Time `db:"record_date" json:"record_date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Improvement is the score delta measured by this record. Negative values
// are possible and recorded as-is.
func (s ScoreRecord) Improvement() float64 {
	return s.AfterScore - s.BeforeScore
}

// ScoreRecordCreateRequest is the payload for recording an assessment.
type ScoreRecordCreateRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	TeacherID   string  `json:"teacher_id" validate:"required"`
	Subject     string  `json:"subject" validate:"required"`
	TestType    string  `json:"test_type" validate:"required"`
	BeforeScore float64 `json:"before_score" validate:"gte=0"`
	AfterScore  float64 `json:"after_score" validate:"gte=0"`
	MaxScore    float64 `json:"max_score" validate:"gt=0"`
	LessonCount int     `json:"lesson_count" validate:"required,gte=1"`
	Notes       string  `json:"notes"`
}
