package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// User represents an application user stored in the users table. Teacher and
// student profile columns live on the same row; only the columns matching the
// role are meaningful.
type User struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	Phone        string `db:"phone" json:"phone"`
	Role         Role   `db:"role" json:"role"`
	Avatar       string `db:"avatar" json:"avatar,omitempty"`
	PasswordHash string `db:"password_hash" json:"-"`

	Active        bool       `db:"active" json:"active"`
	Verified      bool       `db:"verified" json:"verified"`
	LoginAttempts int        `db:"login_attempts" json:"-"`
	LockedUntil   *time.Time `db:"locked_until" json:"-"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`

	// Teacher profile.
	Subjects        pq.StringArray  `db:"subjects" json:"subjects,omitempty"`
	Experience      int             `db:"experience" json:"experience,omitempty"`
	Price           float64         `db:"price" json:"price,omitempty"`
	Rating          float64         `db:"rating" json:"rating"`
	ReviewsCount    int             `db:"reviews_count" json:"reviews_count"`
	DetailedRatings DetailedRatings `db:"detailed_ratings" json:"detailed_ratings"`
	Certifications  pq.StringArray  `db:"certifications" json:"certifications,omitempty"`
	TeachingStyle   string          `db:"teaching_style" json:"teaching_style,omitempty"`
	Description     string          `db:"description" json:"description,omitempty"`
	Availability    pq.StringArray  `db:"availability" json:"availability,omitempty"`

	// Student profile.
	Grade        string         `db:"grade" json:"grade,omitempty"`
	TargetScore  int            `db:"target_score" json:"target_score,omitempty"`
	WeakSubjects pq.StringArray `db:"weak_subjects" json:"weak_subjects,omitempty"`
	StudyGoals   pq.StringArray `db:"study_goals" json:"study_goals,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DetailedRatings holds a teacher's per-dimension review averages, each on a
// 0-5 scale. Stored as a jsonb column.
type DetailedRatings struct {
	Teaching      float64 `json:"teaching"`
	Patience      float64 `json:"patience"`
	Communication float64 `json:"communication"`
	Effectiveness float64 `json:"effectiveness"`
}

// Value implements driver.Valuer for jsonb storage.
func (d DetailedRatings) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for jsonb storage.
func (d *DetailedRatings) Scan(src interface{}) error {
	if src == nil {
		*d = DetailedRatings{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported detailed_ratings type %T", src)
	}
}

// TeacherFilter captures search criteria for listing teachers.
type TeacherFilter struct {
	Subject   string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// SubjectCount is one entry in the subject distribution listing.
type SubjectCount struct {
	Subject string `db:"subject" json:"subject"`
	Count   int    `db:"count" json:"count"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
