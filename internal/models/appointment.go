package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AppointmentStatus is the closed set of booking states.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether the status belongs to the closed set.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// LessonType distinguishes one-off bookings from lesson packages.
type LessonType string

const (
	LessonSingle  LessonType = "single"
	LessonPackage LessonType = "package"
)

// PackageInfo tracks progress through a lesson package. Stored as a nullable
// jsonb column; nil for single lessons.
type PackageInfo struct {
	TotalLessons     int `json:"total_lessons" validate:"min=1"`
	CompletedLessons int `json:"completed_lessons" validate:"min=0"`
}

// Value implements driver.Valuer for jsonb storage.
func (p PackageInfo) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for jsonb storage.
func (p *PackageInfo) Scan(src interface{}) error {
	if src == nil {
		*p = PackageInfo{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported package_info type %T", src)
	}
}

// Appointment is a booked lesson between a teacher and a student. StudentID
// is empty for anonymous bookings.
type Appointment struct {
	ID              string            `db:"id" json:"id"`
	TeacherID       string            `db:"teacher_id" json:"teacher_id"`
	StudentID       *string           `db:"student_id" json:"student_id,omitempty"`
	StudentName     string            `db:"student_name" json:"student_name"`
	Subject         string            `db:"subject" json:"subject"`
	AppointmentTime time.Time         `db:"appointment_time" json:"appointment_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Price           float64           `db:"price" json:"price"`
	Notes           string            `db:"notes" json:"notes"`
	LessonType      LessonType        `db:"lesson_type" json:"lesson_type"`
	PackageInfo     *PackageInfo      `db:"package_info" json:"package_info,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentCreateRequest is the booking payload. Price, when supplied,
// overrides the teacher's current hourly rate.
type AppointmentCreateRequest struct {
	TeacherID       string       `json:"teacher_id" validate:"required"`
	StudentID       *string      `json:"student_id,omitempty"`
	StudentName     string       `json:"student_name" validate:"required"`
	Subject         string       `json:"subject" validate:"required"`
	AppointmentTime time.Time    `json:"appointment_time" validate:"required"`
	Notes           string       `json:"notes"`
	LessonType      LessonType   `json:"lesson_type"`
	PackageInfo     *PackageInfo `json:"package_info,omitempty"`
	Price           *float64     `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// AppointmentUpdateRequest mutates status and notes only; everything else is
// fixed at creation.
type AppointmentUpdateRequest struct {
	Status *AppointmentStatus `json:"status,omitempty"`
	Notes  *string            `json:"notes,omitempty"`
}

// AppointmentFilter captures listing criteria.
type AppointmentFilter struct {
	TeacherID string
	StudentID string
	Status    string
	Page      int
	PageSize  int
}
