package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ai-super-hub/hub-api/internal/models"
)

func TestCourseRepositoryFindDetailByIDLoadsOrderedChildren(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, title, description, category, difficulty, thumbnail_url, published, enrollment_count, created_at, updated_at FROM courses WHERE id").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "category", "difficulty", "thumbnail_url", "published", "enrollment_count", "created_at", "updated_at"}).
			AddRow("c1", "Go Basics", "Intro", "PROGRAMMING", models.DifficultyBeginner, "", true, 3, now, now))

	mock.ExpectQuery("FROM lessons WHERE course_id = \\$1 ORDER BY order_index ASC").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "title", "content", "video_url", "duration_minutes", "order_index", "created_at"}).
			AddRow("l1", "c1", "First", "body", "", 10, 0, now).
			AddRow("l2", "c1", "Second", "body", "", 15, 1, now))

	mock.ExpectQuery("FROM quiz_questions WHERE course_id = \\$1 ORDER BY order_index ASC").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "question", "options", "correct_answer", "explanation", "order_index"}).
			AddRow("q1", "c1", "2+2?", "{3,4}", 1, "", 0))

	course, err := repo.FindDetailByID(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, course.Lessons, 2)
	require.Equal(t, "l1", course.Lessons[0].ID)
	require.Len(t, course.Quiz, 1)
	require.Equal(t, 1, course.Quiz[0].CorrectAnswer)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateInsertsChildren(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO quiz_questions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	course := &models.Course{
		Title:      "Go Basics",
		Category:   "PROGRAMMING",
		Difficulty: models.DifficultyBeginner,
		Lessons:    []models.Lesson{{Title: "First", Content: "body"}},
		Quiz:       []models.QuizQuestion{{Question: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: 1}},
	}
	require.NoError(t, repo.Create(context.Background(), course))
	require.NotEmpty(t, course.ID)
	require.Equal(t, course.ID, course.Lessons[0].CourseID)
	require.Equal(t, course.ID, course.Quiz[0].CourseID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateRewritesChildren(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE courses SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE course_id = $1")).
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM quiz_questions WHERE course_id = $1")).
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	course := &models.Course{
		ID:         "c1",
		Title:      "Go Basics",
		Category:   "PROGRAMMING",
		Difficulty: models.DifficultyBeginner,
		Lessons:    []models.Lesson{{Title: "Replacement", Content: "body"}},
	}
	require.NoError(t, repo.Update(context.Background(), course))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryIncrementEnrollmentCount(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET enrollment_count = enrollment_count + 1 WHERE id = $1")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementEnrollmentCount(context.Background(), "c1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
