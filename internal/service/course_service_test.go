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

type mockCourseRepo struct {
	courses map[string]*models.Course
	deleted []string
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error) {
	var out []models.CourseSummary
	for _, c := range m.courses {
		if filter.PublishedOnly && !c.Published {
			continue
		}
		out = append(out, models.CourseSummary{ID: c.ID, Title: c.Title, Published: c.Published})
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindDetailByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copied := *c
		copied.Lessons = append([]models.Lesson(nil), c.Lessons...)
		copied.Quiz = append([]models.QuizQuestion(nil), c.Quiz...)
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]*models.Course)
	}
	if course.ID == "" {
		course.ID = "new-course"
	}
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockEnrollmentCleaner struct {
	cleaned []string
}

func (m *mockEnrollmentCleaner) DeleteByCourse(ctx context.Context, courseID string) error {
	m.cleaned = append(m.cleaned, courseID)
	return nil
}

type mockCache struct {
	gets        int
	sets        int
	invalidated int
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	return appErrors.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated++
	return nil
}

func courseFixture() *models.Course {
	c := testCourse()
	c.Quiz = []models.QuizQuestion{
		{ID: "q1", CorrectAnswer: 1, Explanation: "because", Options: []string{"a", "b"}},
	}
	return c
}

func newCourseFixture(t *testing.T) (*CourseService, *mockCourseRepo, *mockEnrollmentCleaner, *mockCache) {
	t.Helper()
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": courseFixture()}}
	cleaner := &mockEnrollmentCleaner{}
	cache := &mockCache{}
	svc := NewCourseService(repo, cleaner, cache, nil, validator.New(), zap.NewNop(), time.Minute)
	return svc, repo, cleaner, cache
}

func TestCourseGetSanitizesForNonAdmin(t *testing.T) {
	svc, _, _, _ := newCourseFixture(t)

	course, err := svc.Get(context.Background(), "c1", false)
	require.NoError(t, err)
	require.Len(t, course.Quiz, 1)
	assert.Equal(t, models.HiddenAnswer, course.Quiz[0].CorrectAnswer)
	assert.Empty(t, course.Quiz[0].Explanation)
}

func TestCourseGetKeepsAnswersForAdmin(t *testing.T) {
	svc, _, _, _ := newCourseFixture(t)

	course, err := svc.Get(context.Background(), "c1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, course.Quiz[0].CorrectAnswer)
	assert.Equal(t, "because", course.Quiz[0].Explanation)
}

func TestCourseGetHidesUnpublishedFromNonAdmin(t *testing.T) {
	svc, repo, _, _ := newCourseFixture(t)
	repo.courses["c1"].Published = false

	_, err := svc.Get(context.Background(), "c1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "c1", true)
	require.NoError(t, err)
}

func TestCourseListForcesPublishedForNonAdmin(t *testing.T) {
	svc, repo, _, _ := newCourseFixture(t)
	repo.courses["c2"] = &models.Course{ID: "c2", Title: "Draft", Published: false}

	result, err := svc.List(context.Background(), models.CourseFilter{}, false)
	require.NoError(t, err)
	assert.Len(t, result.Courses, 1)

	result, err = svc.List(context.Background(), models.CourseFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, result.Courses, 2)
}

func TestCourseCreateRejectsOutOfRangeAnswer(t *testing.T) {
	svc, _, _, _ := newCourseFixture(t)

	_, err := svc.Create(context.Background(), CourseRequest{
		Title:       "Bad",
		Description: "Bad",
		Category:    "AI",
		Difficulty:  models.DifficultyBeginner,
		Quiz: []QuizQuestionInput{
			{Question: "?", Options: []string{"a", "b"}, CorrectAnswer: 2},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseCreateAssignsLessonOrder(t *testing.T) {
	svc, _, _, cache := newCourseFixture(t)

	course, err := svc.Create(context.Background(), CourseRequest{
		Title:       "New",
		Description: "Desc",
		Category:    "AI",
		Difficulty:  models.DifficultyBeginner,
		Published:   true,
		Lessons: []LessonInput{
			{Title: "One", Content: "c"},
			{Title: "Two", Content: "c"},
		},
	})
	require.NoError(t, err)
	require.Len(t, course.Lessons, 2)
	assert.Equal(t, 0, course.Lessons[0].OrderIndex)
	assert.Equal(t, 1, course.Lessons[1].OrderIndex)
	assert.Equal(t, 1, cache.invalidated)
}

func TestCourseDeleteCascadesEnrollments(t *testing.T) {
	svc, repo, cleaner, _ := newCourseFixture(t)

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	assert.Contains(t, cleaner.cleaned, "c1")
	assert.Contains(t, repo.deleted, "c1")
}

func TestCourseUpdatePreservesEnrollmentCount(t *testing.T) {
	svc, repo, _, _ := newCourseFixture(t)
	repo.courses["c1"].EnrollmentCount = 42

	course, err := svc.Update(context.Background(), "c1", CourseRequest{
		Title:       "Updated",
		Description: "Desc",
		Category:    "AI",
		Difficulty:  models.DifficultyAdvanced,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, course.EnrollmentCount)
	assert.Equal(t, "Updated", course.Title)
}

func TestCourseListCachesPublishedPages(t *testing.T) {
	svc, _, _, cache := newCourseFixture(t)

	_, err := svc.List(context.Background(), models.CourseFilter{}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 1, cache.sets)

	// Admin listings bypass the cache entirely.
	_, err = svc.List(context.Background(), models.CourseFilter{}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 1, cache.sets)
}
