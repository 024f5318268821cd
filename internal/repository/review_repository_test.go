package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyboost/tutor-market-api/internal/models"
)

func TestCreateReview(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectExec("INSERT INTO reviews").WillReturnResult(sqlmock.NewResult(1, 1))

	review := &models.Review{
		AppointmentID: "a1",
		TeacherID:     "t1",
		StudentName:   "Student One",
		Ratings:       models.ReviewRatings{Overall: 5, Teaching: 5, Patience: 4, Communication: 5, Effectiveness: 4},
		IsRecommended: true,
	}
	err := repo.Create(context.Background(), review)
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.False(t, review.ReviewDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByAppointmentNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM reviews WHERE appointment_id = \$1 LIMIT 1`).
		WithArgs("a1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByAppointment(context.Background(), "a1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReviewsByTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "appointment_id", "teacher_id", "student_name", "ratings", "comment", "is_recommended", "review_date", "created_at"}).
		AddRow("r1", "a1", "t1", "Student One", []byte(`{"overall":5,"teaching":5,"patience":4,"communication":5,"effectiveness":4}`), "great lesson", true, now, now)
	mock.ExpectQuery(`SELECT (.+) FROM reviews WHERE teacher_id = \$1 ORDER BY review_date DESC LIMIT 20 OFFSET 0`).
		WithArgs("t1").
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reviews WHERE teacher_id = \$1`).
		WithArgs("t1").
		WillReturnRows(countRows)

	reviews, total, err := repo.ListByTeacher(context.Background(), "t1", 1, 20)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 5, reviews[0].Ratings.Overall)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	rows := sqlmock.NewRows([]string{"overall", "teaching", "patience", "communication", "effectiveness", "count"}).
		AddRow(4.666666, 4.5, 4.333333, 4.0, 4.666666, 3)
	mock.ExpectQuery(`COALESCE\(AVG\(\(ratings->>'overall'\)::float\), 0\) AS overall`).
		WithArgs("t1").
		WillReturnRows(rows)

	stats, err := repo.RatingStats(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 4.666666, stats.Overall, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	rows := sqlmock.NewRows([]string{"recommended", "total"}).AddRow(2, 3)
	mock.ExpectQuery(`SUM\(CASE WHEN is_recommended THEN 1 ELSE 0 END\)`).
		WithArgs("t1").
		WillReturnRows(rows)

	recommended, total, err := repo.RecommendationStats(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, recommended)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
