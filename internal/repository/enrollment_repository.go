package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ai-super-hub/hub-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments, completed lessons
// and quiz attempts.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, user_id, course_id, progress, status, best_quiz_score, certificate_issued, enrolled_at, last_accessed_at, completed_at`

// FindByID returns an enrollment by its ID without child rows.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE id = $1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByUserAndCourse returns the enrollment for a (user, course) pair with
// completed lessons and quiz attempts loaded.
func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE user_id = $1 AND course_id = $2`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Exists reports whether an enrollment exists for the pair.
func (r *EnrollmentRepository) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusEnrolled
	}
	const query = `INSERT INTO enrollments (id, user_id, course_id, progress, status, best_quiz_score, certificate_issued, enrolled_at, last_accessed_at, completed_at)
        VALUES (:id, :user_id, :course_id, :progress, :status, :best_quiz_score, :certificate_issued, :enrolled_at, :last_accessed_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateProgress persists the derived progress fields after a state change.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	const query = `UPDATE enrollments SET progress = :progress, status = :status, best_quiz_score = :best_quiz_score,
        certificate_issued = :certificate_issued, last_accessed_at = :last_accessed_at, completed_at = :completed_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	return nil
}

// AddCompletedLesson inserts a completion marker. The conflict clause keeps
// the call idempotent per (enrollment, lesson).
func (r *EnrollmentRepository) AddCompletedLesson(ctx context.Context, enrollmentID, lessonID string, completedAt time.Time) error {
	const query = `INSERT INTO completed_lessons (enrollment_id, lesson_id, completed_at)
        VALUES ($1, $2, $3) ON CONFLICT (enrollment_id, lesson_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, enrollmentID, lessonID, completedAt); err != nil {
		return fmt.Errorf("add completed lesson: %w", err)
	}
	return nil
}

// AppendQuizAttempt stores an attempt and its per-question review rows.
// Attempts are append-only; existing rows are never touched.
func (r *EnrollmentRepository) AppendQuizAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append attempt: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const attemptQuery = `INSERT INTO quiz_attempts (id, enrollment_id, score, total_questions, percentage, attempted_at)
        VALUES (:id, :enrollment_id, :score, :total_questions, :percentage, :attempted_at)`
	if _, err := tx.NamedExecContext(ctx, attemptQuery, attempt); err != nil {
		return fmt.Errorf("insert quiz attempt: %w", err)
	}

	const answerQuery = `INSERT INTO attempt_answers (attempt_id, question_id, selected_answer, is_correct)
        VALUES ($1, $2, $3, $4)`
	for i := range attempt.Answers {
		answer := &attempt.Answers[i]
		answer.AttemptID = attempt.ID
		if _, err := tx.ExecContext(ctx, answerQuery, attempt.ID, answer.QuestionID, answer.SelectedAnswer, answer.IsCorrect); err != nil {
			return fmt.Errorf("insert attempt answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append attempt: %w", err)
	}
	return nil
}

// ListByUser returns the user's enrollments joined with course summaries.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.progress, e.status, e.best_quiz_score, e.certificate_issued,
        e.enrolled_at, e.last_accessed_at, e.completed_at,
        c.title AS course_title, c.thumbnail_url AS course_thumbnail,
        (SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id) AS lesson_count
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.user_id = $1
        ORDER BY e.enrolled_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, userID); err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return enrollments, nil
}

// DeleteByCourse cascades enrollment data for a deleted course.
func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.deleteWhere(ctx, "course_id", courseID)
}

// DeleteByUser cascades enrollment data for a deleted user.
func (r *EnrollmentRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.deleteWhere(ctx, "user_id", userID)
}

func (r *EnrollmentRepository) deleteWhere(ctx context.Context, column, value string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment cascade: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sub := fmt.Sprintf(`SELECT id FROM enrollments WHERE %s = $1`, column)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM attempt_answers WHERE attempt_id IN (SELECT id FROM quiz_attempts WHERE enrollment_id IN (%s))`, sub), value); err != nil {
		return fmt.Errorf("cascade attempt answers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM quiz_attempts WHERE enrollment_id IN (%s)`, sub), value); err != nil {
		return fmt.Errorf("cascade quiz attempts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM completed_lessons WHERE enrollment_id IN (%s)`, sub), value); err != nil {
		return fmt.Errorf("cascade completed lessons: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM enrollments WHERE %s = $1`, column), value); err != nil {
		return fmt.Errorf("cascade enrollments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment cascade: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) loadChildren(ctx context.Context, enrollment *models.Enrollment) error {
	const lessonQuery = `SELECT enrollment_id, lesson_id, completed_at FROM completed_lessons WHERE enrollment_id = $1`
	if err := r.db.SelectContext(ctx, &enrollment.CompletedLessons, lessonQuery, enrollment.ID); err != nil {
		return fmt.Errorf("load completed lessons: %w", err)
	}

	const attemptQuery = `SELECT id, enrollment_id, score, total_questions, percentage, attempted_at
        FROM quiz_attempts WHERE enrollment_id = $1 ORDER BY attempted_at ASC`
	if err := r.db.SelectContext(ctx, &enrollment.QuizAttempts, attemptQuery, enrollment.ID); err != nil {
		return fmt.Errorf("load quiz attempts: %w", err)
	}

	const answerQuery = `SELECT attempt_id, question_id, selected_answer, is_correct FROM attempt_answers WHERE attempt_id = $1`
	for i := range enrollment.QuizAttempts {
		attempt := &enrollment.QuizAttempts[i]
		if err := r.db.SelectContext(ctx, &attempt.Answers, answerQuery, attempt.ID); err != nil {
			return fmt.Errorf("load attempt answers: %w", err)
		}
	}
	return nil
}
