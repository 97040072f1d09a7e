package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ai-super-hub/hub-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "u1", "c1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("u1", "c2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.Exists(context.Background(), "u1", "c2")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{UserID: "u1", CourseID: "c1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByUserAndCourseLoadsChildren(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, user_id, course_id, progress, status, best_quiz_score, certificate_issued, enrolled_at, last_accessed_at, completed_at FROM enrollments WHERE user_id").
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "progress", "status", "best_quiz_score", "certificate_issued", "enrolled_at", "last_accessed_at", "completed_at"}).
			AddRow("e1", "u1", "c1", 50, models.EnrollmentStatusInProgress, 80, false, now, nil, nil))

	mock.ExpectQuery("SELECT enrollment_id, lesson_id, completed_at FROM completed_lessons").
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "lesson_id", "completed_at"}).
			AddRow("e1", "l1", now))

	mock.ExpectQuery("SELECT id, enrollment_id, score, total_questions, percentage, attempted_at").
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_id", "score", "total_questions", "percentage", "attempted_at"}).
			AddRow("a1", "e1", 4, 5, 80, now))

	mock.ExpectQuery("SELECT attempt_id, question_id, selected_answer, is_correct FROM attempt_answers").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"attempt_id", "question_id", "selected_answer", "is_correct"}).
			AddRow("a1", "q1", 2, true))

	enrollment, err := repo.FindByUserAndCourse(context.Background(), "u1", "c1")
	require.NoError(t, err)
	require.Len(t, enrollment.CompletedLessons, 1)
	require.Len(t, enrollment.QuizAttempts, 1)
	require.Len(t, enrollment.QuizAttempts[0].Answers, 1)
	require.Equal(t, 80, enrollment.BestQuizScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAddCompletedLesson(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completed_lessons (enrollment_id, lesson_id, completed_at)")).
		WithArgs("e1", "l1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddCompletedLesson(context.Background(), "e1", "l1", time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAppendQuizAttempt(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO quiz_attempts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attempt_answers").
		WithArgs(sqlmock.AnyArg(), "q1", 0, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	attempt := &models.QuizAttempt{
		EnrollmentID:   "e1",
		Score:          1,
		TotalQuestions: 1,
		Percentage:     100,
		Answers:        []models.AnswerReview{{QuestionID: "q1", SelectedAnswer: 0, IsCorrect: true}},
	}
	require.NoError(t, repo.AppendQuizAttempt(context.Background(), attempt))
	require.NotEmpty(t, attempt.ID)
	require.Equal(t, attempt.ID, attempt.Answers[0].AttemptID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteByCourseCascades(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM attempt_answers").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM quiz_attempts").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM completed_lessons").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM enrollments").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByCourse(context.Background(), "c1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
