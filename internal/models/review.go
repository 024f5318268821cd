package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ReviewRatings carries the five review dimensions, each an integer 1-5.
// Stored as a jsonb column.
type ReviewRatings struct {
	Overall       int `json:"overall" validate:"min=1,max=5"`
	Teaching      int `json:"teaching" validate:"min=1,max=5"`
	Patience      int `json:"patience" validate:"min=1,max=5"`
	Communication int `json:"communication" validate:"min=1,max=5"`
	Effectiveness int `json:"effectiveness" validate:"min=1,max=5"`
}

// Value implements driver.Valuer for jsonb storage.
func (r ReviewRatings) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for jsonb storage.
func (r *ReviewRatings) Scan(src interface{}) error {
	if src == nil {
		*r = ReviewRatings{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported ratings type %T", src)
	}
}

// Review is a one-to-one evaluation of a completed appointment.
type Review struct {
	ID            string         `db:"id" json:"id"`
	AppointmentID string         `db:"appointment_id" json:"appointment_id"`
	TeacherID     string         `db:"teacher_id" json:"teacher_id"`
	StudentID     *string        `db:"student_id" json:"student_id,omitempty"`
	StudentName   string         `db:"student_name" json:"student_name"`
	Ratings       ReviewRatings  `db:"ratings" json:"ratings"`
	Comment       string         `db:"comment" json:"comment"`
	IsRecommended bool           `db:"is_recommended" json:"is_recommended"`
	Tags          pq.StringArray `db:"tags" json:"tags,omitempty"`
	ReviewDate    time.Time      `db:"review_date" json:"review_date"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// ReviewCreateRequest is the payload for posting a review against a
// teacher's appointment.
type ReviewCreateRequest struct {
	AppointmentID string        `json:"appointment_id" validate:"required"`
	StudentID     *string       `json:"student_id,omitempty"`
	StudentName   string        `json:"student_name" validate:"required"`
	Ratings       ReviewRatings `json:"ratings" validate:"required"`
	Comment       string        `json:"comment"`
	IsRecommended bool          `json:"is_recommended"`
	Tags          []string      `json:"tags,omitempty"`
}

// RatingStats aggregates a teacher's review dimensions, each rounded to one
// decimal place.
type RatingStats struct {
	Overall       float64 `json:"overall"`
	Teaching      float64 `json:"teaching"`
	Patience      float64 `json:"patience"`
	Communication float64 `json:"communication"`
	Effectiveness float64 `json:"effectiveness"`
	Count         int     `json:"count"`
}
