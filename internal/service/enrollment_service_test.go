package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]*models.Enrollment
	attempts    []models.QuizAttempt
	updated     *models.Enrollment
}

func enrollKey(userID, courseID string) string { return userID + "/" + courseID }

func (m *mockEnrollmentRepo) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[enrollKey(userID, courseID)]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	_, ok := m.enrollments[enrollKey(userID, courseID)]
	return ok, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]*models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enrollment"
	}
	copied := *enrollment
	m.enrollments[enrollKey(enrollment.UserID, enrollment.CourseID)] = &copied
	return nil
}

func (m *mockEnrollmentRepo) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	copied := *enrollment
	m.updated = &copied
	m.enrollments[enrollKey(enrollment.UserID, enrollment.CourseID)] = &copied
	return nil
}

func (m *mockEnrollmentRepo) AddCompletedLesson(ctx context.Context, enrollmentID, lessonID string, completedAt time.Time) error {
	return nil
}

func (m *mockEnrollmentRepo) AppendQuizAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = "attempt"
	}
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *mockEnrollmentRepo) ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.UserID == userID {
			list = append(list, models.EnrollmentDetail{Enrollment: *e})
		}
	}
	return list, nil
}

type mockCourseCatalog struct {
	courses    map[string]*models.Course
	increments []string
}

func (m *mockCourseCatalog) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseCatalog) FindDetailByID(ctx context.Context, id string) (*models.Course, error) {
	return m.FindByID(ctx, id)
}

func (m *mockCourseCatalog) IncrementEnrollmentCount(ctx context.Context, id string) error {
	m.increments = append(m.increments, id)
	return nil
}

type mockNotifier struct {
	earned []string
}

func (m *mockNotifier) CertificateEarned(ctx context.Context, userID, courseTitle string) {
	m.earned = append(m.earned, userID+"/"+courseTitle)
}

func testCourse() *models.Course {
	return &models.Course{
		ID:        "c1",
		Title:     "Prompt Engineering Basics",
		Published: true,
		Lessons: []models.Lesson{
			{ID: "l1", CourseID: "c1"},
			{ID: "l2", CourseID: "c1"},
		},
		Quiz: []models.QuizQuestion{
			{ID: "q1", CorrectAnswer: 0},
			{ID: "q2", CorrectAnswer: 1},
		},
	}
}

func newEnrollmentFixture(t *testing.T) (*EnrollmentService, *mockEnrollmentRepo, *mockCourseCatalog, *mockNotifier) {
	t.Helper()
	repo := &mockEnrollmentRepo{enrollments: make(map[string]*models.Enrollment)}
	catalog := &mockCourseCatalog{courses: map[string]*models.Course{"c1": testCourse()}}
	notifier := &mockNotifier{}
	svc := NewEnrollmentService(repo, catalog, notifier, nil, validator.New(), zap.NewNop())
	return svc, repo, catalog, notifier
}

func TestEnroll(t *testing.T) {
	svc, _, catalog, _ := newEnrollmentFixture(t)

	enrollment, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.Equal(t, 0, enrollment.Progress)
	assert.Contains(t, catalog.increments, "c1")
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), "u1", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestEnrollRejectsUnpublishedCourse(t *testing.T) {
	svc, _, catalog, _ := newEnrollmentFixture(t)
	catalog.courses["c1"].Published = false

	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseNotPublished.Code, appErrors.FromError(err).Code)
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCompleteLessonUpdatesProgress(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)

	enrollment, err := svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 50, enrollment.Progress)
	assert.Equal(t, models.EnrollmentStatusInProgress, enrollment.Status)
	assert.Nil(t, enrollment.CompletedAt)
}

func TestCompleteLessonIdempotent(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)

	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.NoError(t, err)
	enrollment, err := svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.NoError(t, err)

	assert.Equal(t, 50, enrollment.Progress)
	assert.Len(t, enrollment.CompletedLessons, 1)
}

func TestCompleteAllLessonsSetsCompletedOnce(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)

	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.NoError(t, err)
	first, err := svc.CompleteLesson(context.Background(), "u1", "c1", "l2")
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)
	assert.Equal(t, models.EnrollmentStatusCompleted, first.Status)
	assert.Equal(t, 100, first.Progress)

	// Re-completing must not move the completion timestamp.
	again, err := svc.CompleteLesson(context.Background(), "u1", "c1", "l2")
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.Equal(t, *first.CompletedAt, *again.CompletedAt)
}

func TestCompleteLessonUnknownLesson(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)

	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLessonNotFound.Code, appErrors.FromError(err).Code)
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	_, err := svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestSubmitQuizBestScoreIsMonotonic(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)

	result, err := svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q2", SelectedAnswer: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Percentage)
	assert.True(t, result.Passed)
	assert.Equal(t, 100, repo.updated.BestQuizScore)

	// A worse attempt never lowers the best score.
	result, err = svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Percentage)
	assert.False(t, result.Passed)
	assert.Equal(t, 100, repo.updated.BestQuizScore)
	assert.Len(t, repo.attempts, 2)
}

func TestSubmitQuizDuplicateAnswersCannotCertify(t *testing.T) {
	svc, repo, _, notifier := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l2")
	require.NoError(t, err)

	// Repeating one known-correct answer must not reach 100% on a
	// two-question quiz, so the certificate gate stays shut.
	result, err := svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q1", SelectedAnswer: 0},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Equal(t, 50, result.Percentage)
	assert.False(t, result.Passed)
	assert.False(t, result.CertificateIssued)
	assert.LessOrEqual(t, result.Score, result.TotalQuestions)
	assert.Equal(t, 50, repo.updated.BestQuizScore)
	assert.Empty(t, notifier.earned)
}

func TestSubmitQuizIssuesCertificateOnce(t *testing.T) {
	svc, repo, _, notifier := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l2")
	require.NoError(t, err)

	result, err := svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q2", SelectedAnswer: 1},
	}})
	require.NoError(t, err)
	assert.True(t, result.CertificateIssued)
	assert.True(t, result.CourseCompleted)
	assert.Len(t, notifier.earned, 1)

	completedAt := repo.updated.CompletedAt
	require.NotNil(t, completedAt)

	// Re-submitting after certification changes nothing and fires no email.
	result, err = svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q2", SelectedAnswer: 1},
	}})
	require.NoError(t, err)
	assert.True(t, result.CertificateIssued)
	assert.Len(t, notifier.earned, 1)
	assert.Equal(t, *completedAt, *repo.updated.CompletedAt)
}

func TestSubmitQuizPassWithoutAllLessonsNoCertificate(t *testing.T) {
	svc, _, _, notifier := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.NoError(t, err)

	result, err := svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q2", SelectedAnswer: 1},
	}})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.False(t, result.CertificateIssued)
	assert.False(t, result.CourseCompleted)
	assert.Empty(t, notifier.earned)
}

func TestSubmitQuizFailingScoreNoCertificate(t *testing.T) {
	svc, _, _, notifier := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l1")
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), "u1", "c1", "l2")
	require.NoError(t, err)

	result, err := svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 1},
		{QuestionID: "q2", SelectedAnswer: 0},
	}})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.False(t, result.CertificateIssued)
	assert.Empty(t, notifier.earned)
}

func TestSubmitQuizLessonlessCourseNeverCertifies(t *testing.T) {
	svc, _, catalog, notifier := newEnrollmentFixture(t)
	catalog.courses["c1"].Lessons = nil
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)

	result, err := svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q2", SelectedAnswer: 1},
	}})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.False(t, result.CertificateIssued)
	assert.Empty(t, notifier.earned)
}

func TestSubmitQuizRequiresEnrollment(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	_, err := svc.SubmitQuiz(context.Background(), "u1", "c1", SubmitQuizRequest{Answers: []models.QuizAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestGetReturnsNilWhenAbsent(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	enrollment, err := svc.Get(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Nil(t, enrollment)
}

func TestListMine(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	require.NoError(t, err)

	list, err := svc.ListMine(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
