package models

import (
	"time"

	"github.com/lib/pq"
)

// CourseDifficulty enumerates supported difficulty levels.
type CourseDifficulty string

const (
	DifficultyBeginner     CourseDifficulty = "BEGINNER"
	DifficultyIntermediate CourseDifficulty = "INTERMEDIATE"
	DifficultyAdvanced     CourseDifficulty = "ADVANCED"
)

// HiddenAnswer replaces the correct-answer index on non-admin reads.
const HiddenAnswer = -1

// Course is the admin-owned catalog entity. Lessons and quiz questions are
// ordered child rows loaded alongside the course.
type Course struct {
	ID              string           `db:"id" json:"id"`
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	Category        string           `db:"category" json:"category"`
	Difficulty      CourseDifficulty `db:"difficulty" json:"difficulty"`
	ThumbnailURL    string           `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Published       bool             `db:"published" json:"published"`
	EnrollmentCount int              `db:"enrollment_count" json:"enrollment_count"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`

	Lessons []Lesson       `db:"-" json:"lessons,omitempty"`
	Quiz    []QuizQuestion `db:"-" json:"quiz,omitempty"`
}

// Lesson is an ordered unit of course content.
type Lesson struct {
	ID              string    `db:"id" json:"id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	Title           string    `db:"title" json:"title"`
	Content         string    `db:"content" json:"content"`
	VideoURL        string    `db:"video_url" json:"video_url,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	OrderIndex      int       `db:"order_index" json:"order_index"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// QuizQuestion belongs to a course quiz. CorrectAnswer indexes into Options.
type QuizQuestion struct {
	ID            string         `db:"id" json:"id"`
	CourseID      string         `db:"course_id" json:"course_id"`
	Question      string         `db:"question" json:"question"`
	Options       pq.StringArray `db:"options" json:"options"`
	CorrectAnswer int            `db:"correct_answer" json:"correct_answer"`
	Explanation   string         `db:"explanation" json:"explanation,omitempty"`
	OrderIndex    int            `db:"order_index" json:"order_index"`
}

// CourseSummary is the denormalized shape used in list views and joins.
type CourseSummary struct {
	ID              string           `db:"id" json:"id"`
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	Category        string           `db:"category" json:"category"`
	Difficulty      CourseDifficulty `db:"difficulty" json:"difficulty"`
	ThumbnailURL    string           `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Published       bool             `db:"published" json:"published"`
	EnrollmentCount int              `db:"enrollment_count" json:"enrollment_count"`
	LessonCount     int              `db:"lesson_count" json:"lesson_count"`
	QuestionCount   int              `db:"question_count" json:"question_count"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	Category      string
	Difficulty    CourseDifficulty
	Search        string
	PublishedOnly bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// Sanitize hides answer keys and explanations for non-admin reads.
func (c *Course) Sanitize() {
	for i := range c.Quiz {
		c.Quiz[i].CorrectAnswer = HiddenAnswer
		c.Quiz[i].Explanation = ""
	}
}
