package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ai-super-hub/hub-api/internal/models"
)

// CourseRepository handles persistence of courses, lessons and quiz questions.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, title, description, category, difficulty, thumbnail_url, published, enrollment_count, created_at, updated_at`

// List returns course summaries filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error) {
	base := `FROM courses c`
	var conditions []string
	var args []interface{}

	if filter.PublishedOnly {
		conditions = append(conditions, "c.published = TRUE")
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("c.difficulty = $%d", len(args)+1))
		args = append(args, filter.Difficulty)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.title ILIKE $%d OR c.description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":  "c.created_at",
		"title":       "c.title",
		"enrollments": "c.enrollment_count",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.title, c.description, c.category, c.difficulty, c.thumbnail_url,
        c.published, c.enrollment_count,
        (SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id) AS lesson_count,
        (SELECT COUNT(*) FROM quiz_questions q WHERE q.course_id = c.id) AS question_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course without child rows.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID returns a course with its ordered lessons and quiz.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.Course, error) {
	course, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	const lessonQuery = `SELECT id, course_id, title, content, video_url, duration_minutes, order_index, created_at
        FROM lessons WHERE course_id = $1 ORDER BY order_index ASC`
	if err := r.db.SelectContext(ctx, &course.Lessons, lessonQuery, id); err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	const quizQuery = `SELECT id, course_id, question, options, correct_answer, explanation, order_index
        FROM quiz_questions WHERE course_id = $1 ORDER BY order_index ASC`
	if err := r.db.SelectContext(ctx, &course.Quiz, quizQuery, id); err != nil {
		return nil, fmt.Errorf("load quiz questions: %w", err)
	}

	return course, nil
}

// Create persists a course together with its lessons and quiz questions.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const courseQuery = `INSERT INTO courses (id, title, description, category, difficulty, thumbnail_url, published, enrollment_count, created_at, updated_at)
        VALUES (:id, :title, :description, :category, :difficulty, :thumbnail_url, :published, :enrollment_count, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, courseQuery, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	if err := insertChildren(ctx, tx, course); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create course: %w", err)
	}
	return nil
}

// Update replaces the course row and rewrites its child rows.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const courseQuery = `UPDATE courses SET title = :title, description = :description, category = :category,
        difficulty = :difficulty, thumbnail_url = :thumbnail_url, published = :published, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, courseQuery, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_id = $1`, course.ID); err != nil {
		return fmt.Errorf("clear lessons: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_questions WHERE course_id = $1`, course.ID); err != nil {
		return fmt.Errorf("clear quiz questions: %w", err)
	}

	if err := insertChildren(ctx, tx, course); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update course: %w", err)
	}
	return nil
}

// Delete removes a course and its child rows. Enrollments referencing the
// course are removed beforehand by the service layer.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("delete lessons: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_questions WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("delete quiz questions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete course: %w", err)
	}
	return nil
}

// IncrementEnrollmentCount bumps the denormalized counter. Best effort; races
// between concurrent enrolls are tolerated.
func (r *CourseRepository) IncrementEnrollmentCount(ctx context.Context, id string) error {
	const query = `UPDATE courses SET enrollment_count = enrollment_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment enrollment count: %w", err)
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sqlx.Tx, course *models.Course) error {
	const lessonQuery = `INSERT INTO lessons (id, course_id, title, content, video_url, duration_minutes, order_index, created_at)
        VALUES (:id, :course_id, :title, :content, :video_url, :duration_minutes, :order_index, :created_at)`
	for i := range course.Lessons {
		lesson := &course.Lessons[i]
		if lesson.ID == "" {
			lesson.ID = uuid.NewString()
		}
		lesson.CourseID = course.ID
		if lesson.CreatedAt.IsZero() {
			lesson.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.NamedExecContext(ctx, lessonQuery, lesson); err != nil {
			return fmt.Errorf("insert lesson: %w", err)
		}
	}

	const quizQuery = `INSERT INTO quiz_questions (id, course_id, question, options, correct_answer, explanation, order_index)
        VALUES (:id, :course_id, :question, :options, :correct_answer, :explanation, :order_index)`
	for i := range course.Quiz {
		question := &course.Quiz[i]
		if question.ID == "" {
			question.ID = uuid.NewString()
		}
		question.CourseID = course.ID
		if _, err := tx.NamedExecContext(ctx, quizQuery, question); err != nil {
			return fmt.Errorf("insert quiz question: %w", err)
		}
	}
	return nil
}
