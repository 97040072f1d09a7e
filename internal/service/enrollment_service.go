package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error
	AddCompletedLesson(ctx context.Context, enrollmentID, lessonID string, completedAt time.Time) error
	AppendQuizAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
}

type courseCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.Course, error)
	IncrementEnrollmentCount(ctx context.Context, id string) error
}

type certificateNotifier interface {
	CertificateEarned(ctx context.Context, userID, courseTitle string)
}

// SubmitQuizRequest carries a graded quiz submission.
type SubmitQuizRequest struct {
	Answers []models.QuizAnswer `json:"answers" validate:"required,dive"`
}

// EnrollmentService owns the enrollment lifecycle: lesson progress, quiz
// grading and the one-shot certificate gate.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseCatalog
	notifier  certificateNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. Metrics may be nil.
func NewEnrollmentService(repo enrollmentRepository, courses courseCatalog, notifier certificateNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, notifier: notifier, metrics: metrics, validator: validate, logger: logger}
}

// Enroll registers a user to a published course. A user may enroll in a
// given course at most once.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Published {
		return nil, appErrors.ErrCourseNotPublished
	}

	exists, err := s.repo.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Progress:   0,
		Status:     models.EnrollmentStatusEnrolled,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	// Denormalized counter; drift under concurrent enrolls is tolerated.
	if err := s.courses.IncrementEnrollmentCount(ctx, courseID); err != nil {
		s.logger.Warn("failed to increment enrollment count", zap.String("course_id", courseID), zap.Error(err))
	}
	s.metrics.RecordEnrollment()

	return enrollment, nil
}

// CompleteLesson marks one lesson done. Re-completing an already completed
// lesson is a no-op success.
func (s *EnrollmentService) CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (*models.Enrollment, error) {
	enrollment, course, err := s.loadEnrollmentAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	var lessonExists bool
	for i := range course.Lessons {
		if course.Lessons[i].ID == lessonID {
			lessonExists = true
			break
		}
	}
	if !lessonExists {
		return nil, appErrors.ErrLessonNotFound
	}

	now := time.Now().UTC()
	enrollment.LastAccessedAt = &now

	alreadyDone := false
	for i := range enrollment.CompletedLessons {
		if enrollment.CompletedLessons[i].LessonID == lessonID {
			alreadyDone = true
			break
		}
	}

	if !alreadyDone {
		if err := s.repo.AddCompletedLesson(ctx, enrollment.ID, lessonID, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record lesson completion")
		}
		enrollment.CompletedLessons = append(enrollment.CompletedLessons, models.CompletedLesson{
			EnrollmentID: enrollment.ID,
			LessonID:     lessonID,
			CompletedAt:  now,
		})
	}

	enrollment.Progress = computeProgress(len(enrollment.CompletedLessons), len(course.Lessons))
	enrollment.Status = statusForProgress(enrollment.Progress)
	if enrollment.Status == models.EnrollmentStatusCompleted && enrollment.CompletedAt == nil {
		enrollment.CompletedAt = &now
	}

	if err := s.repo.UpdateProgress(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist progress")
	}
	return enrollment, nil
}

// SubmitQuiz grades a submission against the course quiz, appends the
// attempt and runs the certificate gate.
func (s *EnrollmentService) SubmitQuiz(ctx context.Context, userID, courseID string, req SubmitQuizRequest) (*models.QuizResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}

	enrollment, course, err := s.loadEnrollmentAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	score, percentage, reviews := gradeQuiz(course.Quiz, req.Answers)
	now := time.Now().UTC()

	attempt := &models.QuizAttempt{
		EnrollmentID:   enrollment.ID,
		Score:          score,
		TotalQuestions: len(course.Quiz),
		Percentage:     percentage,
		AttemptedAt:    now,
		Answers:        reviews,
	}
	if err := s.repo.AppendQuizAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record quiz attempt")
	}
	enrollment.QuizAttempts = append(enrollment.QuizAttempts, *attempt)
	s.metrics.RecordQuizSubmission()

	if percentage > enrollment.BestQuizScore {
		enrollment.BestQuizScore = percentage
	}
	enrollment.LastAccessedAt = &now

	s.runCertificateGate(ctx, enrollment, course, percentage, now)

	if err := s.repo.UpdateProgress(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist quiz outcome")
	}

	return &models.QuizResult{
		Score:             score,
		TotalQuestions:    len(course.Quiz),
		Percentage:        percentage,
		Passed:            percentage >= models.PassingScore,
		Answers:           reviews,
		CertificateIssued: enrollment.CertificateIssued,
		CourseCompleted:   enrollment.Status == models.EnrollmentStatusCompleted,
	}, nil
}

// Get returns the caller's enrollment for a course, or nil when absent.
func (s *EnrollmentService) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// ListMine returns the caller's enrollments with course summaries.
func (s *EnrollmentService) ListMine(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// runCertificateGate flips certificateIssued exactly once, when every lesson
// is complete and the triggering attempt cleared the passing bar. Subsequent
// calls are no-ops regardless of future scores.
func (s *EnrollmentService) runCertificateGate(ctx context.Context, enrollment *models.Enrollment, course *models.Course, attemptPercentage int, now time.Time) {
	if enrollment.CertificateIssued {
		return
	}
	allLessonsDone := len(course.Lessons) > 0 && len(enrollment.CompletedLessons) == len(course.Lessons)
	if !allLessonsDone || attemptPercentage < models.PassingScore {
		return
	}

	enrollment.Status = models.EnrollmentStatusCompleted
	enrollment.CertificateIssued = true
	if enrollment.CompletedAt == nil {
		enrollment.CompletedAt = &now
	}

	if s.notifier != nil {
		s.notifier.CertificateEarned(ctx, enrollment.UserID, course.Title)
	}
	s.metrics.RecordCertificateIssued()
	s.logger.Info("certificate issued",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("course_id", course.ID),
		zap.Int("score", attemptPercentage))
}

func (s *EnrollmentService) loadEnrollmentAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, *models.Course, error) {
	enrollment, err := s.repo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotEnrolled
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	course, err := s.courses.FindDetailByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return enrollment, course, nil
}
