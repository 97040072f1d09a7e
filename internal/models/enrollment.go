package models

import "time"

// EnrollmentStatus tracks lesson progress through a course. It is driven by
// progress alone; certificate issuance is a separate one-way flag.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled   EnrollmentStatus = "ENROLLED"
	EnrollmentStatusInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentStatusCompleted  EnrollmentStatus = "COMPLETED"
)

// PassingScore is the minimum quiz percentage required for certification.
const PassingScore = 70

// Enrollment is the per-user, per-course progress record. One row exists per
// (user, course) pair.
type Enrollment struct {
	ID                string           `db:"id" json:"id"`
	UserID            string           `db:"user_id" json:"user_id"`
	CourseID          string           `db:"course_id" json:"course_id"`
	Progress          int              `db:"progress" json:"progress"`
	Status            EnrollmentStatus `db:"status" json:"status"`
	BestQuizScore     int              `db:"best_quiz_score" json:"best_quiz_score"`
	CertificateIssued bool             `db:"certificate_issued" json:"certificate_issued"`
	EnrolledAt        time.Time        `db:"enrolled_at" json:"enrolled_at"`
	LastAccessedAt    *time.Time       `db:"last_accessed_at" json:"last_accessed_at,omitempty"`
	CompletedAt       *time.Time       `db:"completed_at" json:"completed_at,omitempty"`

	CompletedLessons []CompletedLesson `db:"-" json:"completed_lessons,omitempty"`
	QuizAttempts     []QuizAttempt     `db:"-" json:"quiz_attempts,omitempty"`
}

// CompletedLesson marks one lesson as done. Membership by lesson id is what
// matters; a lesson appears at most once per enrollment.
type CompletedLesson struct {
	EnrollmentID string    `db:"enrollment_id" json:"-"`
	LessonID     string    `db:"lesson_id" json:"lesson_id"`
	CompletedAt  time.Time `db:"completed_at" json:"completed_at"`
}

// QuizAttempt is an immutable graded submission. Attempts are append-only.
type QuizAttempt struct {
	ID             string         `db:"id" json:"id"`
	EnrollmentID   string         `db:"enrollment_id" json:"-"`
	Score          int            `db:"score" json:"score"`
	TotalQuestions int            `db:"total_questions" json:"total_questions"`
	Percentage     int            `db:"percentage" json:"percentage"`
	AttemptedAt    time.Time      `db:"attempted_at" json:"attempted_at"`
	Answers        []AnswerReview `db:"-" json:"answers"`
}

// AnswerReview is the per-question outcome stored with an attempt.
type AnswerReview struct {
	AttemptID      string `db:"attempt_id" json:"-"`
	QuestionID     string `db:"question_id" json:"question_id"`
	SelectedAnswer int    `db:"selected_answer" json:"selected_answer"`
	IsCorrect      bool   `db:"is_correct" json:"is_correct"`
}

// QuizAnswer is a submitted (question, selected option) pair.
type QuizAnswer struct {
	QuestionID     string `json:"question_id" validate:"required"`
	SelectedAnswer int    `json:"selected_answer" validate:"gte=0"`
}

// QuizResult is returned from a quiz submission. CertificateIssued and
// CourseCompleted reflect the enrollment state after the call.
type QuizResult struct {
	Score             int            `json:"score"`
	TotalQuestions    int            `json:"total_questions"`
	Percentage        int            `json:"percentage"`
	Passed            bool           `json:"passed"`
	Answers           []AnswerReview `json:"answers"`
	CertificateIssued bool           `json:"certificate_issued"`
	CourseCompleted   bool           `json:"course_completed"`
}

// EnrollmentDetail joins an enrollment with its course summary for listings.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle     string `db:"course_title" json:"course_title"`
	CourseThumbnail string `db:"course_thumbnail" json:"course_thumbnail,omitempty"`
	LessonCount     int    `db:"lesson_count" json:"lesson_count"`
}
