package models

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(raw), nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Registerable reports whether the role may be chosen at self-registration.
// Admin accounts are provisioned out of band.
func (r Role) Registerable() bool {
	return r == RoleStudent || r == RoleTeacher
}

// CanViewStudentAnalytics decides whether a viewer may read a student's
// analytics. Students see only themselves; teachers and admins see any
// student.
func (r Role) CanViewStudentAnalytics(viewerID, studentID string) bool {
	switch r {
	case RoleStudent:
		return viewerID == studentID
	case RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// CanViewTeacherAnalytics decides whether a viewer may read a teacher's
// analytics. Teachers see only themselves, admins see everyone, students are
// denied outright.
func (r Role) CanViewTeacherAnalytics(viewerID, teacherID string) bool {
	switch r {
	case RoleTeacher:
		return viewerID == teacherID
	case RoleAdmin:
		return true
	}
	return false
}
