package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

const courseCachePrefix = "courses:list"

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseEnrollmentCleaner interface {
	DeleteByCourse(ctx context.Context, courseID string) error
}

// CatalogCache is the cache surface used for published course listings.
type CatalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// LessonInput describes one lesson in a course write request.
type LessonInput struct {
	Title           string `json:"title" validate:"required"`
	Content         string `json:"content" validate:"required"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
}

// QuizQuestionInput describes one quiz question in a course write request.
type QuizQuestionInput struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2"`
	CorrectAnswer int      `json:"correct_answer" validate:"gte=0"`
	Explanation   string   `json:"explanation"`
}

// CourseRequest is the admin payload for creating or replacing a course.
// Lessons and quiz questions are replaced wholesale on update.
type CourseRequest struct {
	Title        string                  `json:"title" validate:"required"`
	Description  string                  `json:"description" validate:"required"`
	Category     string                  `json:"category" validate:"required"`
	Difficulty   models.CourseDifficulty `json:"difficulty" validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	ThumbnailURL string                  `json:"thumbnail_url" validate:"omitempty,url"`
	Published    bool                    `json:"published"`
	Lessons      []LessonInput           `json:"lessons" validate:"dive"`
	Quiz         []QuizQuestionInput     `json:"quiz" validate:"dive"`
}

// CourseListResult pairs a course page with its total count.
type CourseListResult struct {
	Courses []models.CourseSummary `json:"courses"`
	Total   int                    `json:"total"`
}

// CourseService manages the course catalog. Published list views are cached
// in Redis; any write invalidates the whole listing keyspace.
type CourseService struct {
	repo        courseRepository
	enrollments courseEnrollmentCleaner
	cache       CatalogCache
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cacheTTL    time.Duration
}

// NewCourseService constructs CourseService. A nil cache disables caching.
func NewCourseService(repo courseRepository, enrollments courseEnrollmentCleaner, cache CatalogCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CourseService{
		repo:        repo,
		enrollments: enrollments,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cacheTTL:    cacheTTL,
	}
}

// List returns a catalog page. Non-admin callers only see published courses.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter, isAdmin bool) (*CourseListResult, error) {
	if !isAdmin {
		filter.PublishedOnly = true
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	cacheKey := s.listCacheKey(filter)
	if s.cache != nil && filter.PublishedOnly {
		var cached CourseListResult
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("course list cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	result := &CourseListResult{Courses: courses, Total: total}
	if s.cache != nil && filter.PublishedOnly {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("course list cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// Get returns one course with lessons and quiz. For non-admin callers the
// answer keys and explanations are stripped, and unpublished courses 404.
func (s *CourseService) Get(ctx context.Context, id string, isAdmin bool) (*models.Course, error) {
	course, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if !isAdmin {
		if !course.Published {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		course.Sanitize()
	}
	return course, nil
}

// Create inserts a new course with its lessons and quiz questions.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := validateQuizAnswers(req.Quiz); err != nil {
		return nil, err
	}

	course := req.toModel()
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateListCache(ctx)
	return course, nil
}

// Update replaces a course and its child rows.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := validateQuizAnswers(req.Quiz); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course := req.toModel()
	course.ID = existing.ID
	course.EnrollmentCount = existing.EnrollmentCount
	course.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateListCache(ctx)
	return course, nil
}

// Delete removes a course and every enrollment attached to it.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if err := s.enrollments.DeleteByCourse(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course enrollments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.invalidateListCache(ctx)
	return nil
}

func (s *CourseService) listCacheKey(filter models.CourseFilter) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d:%d:%s:%s",
		courseCachePrefix,
		filter.Category,
		filter.Difficulty,
		filter.Search,
		filter.Page,
		filter.PageSize,
		filter.SortBy,
		filter.SortOrder)
}

func (s *CourseService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, courseCachePrefix+":*"); err != nil {
		s.logger.Warn("course list cache invalidation failed", zap.Error(err))
	}
}

func validateQuizAnswers(quiz []QuizQuestionInput) error {
	for i, q := range quiz {
		if q.CorrectAnswer >= len(q.Options) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d: correct_answer out of range", i+1))
		}
	}
	return nil
}

func (req CourseRequest) toModel() *models.Course {
	course := &models.Course{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		ThumbnailURL: req.ThumbnailURL,
		Published:    req.Published,
	}
	for i, l := range req.Lessons {
		course.Lessons = append(course.Lessons, models.Lesson{
			Title:           l.Title,
			Content:         l.Content,
			VideoURL:        l.VideoURL,
			DurationMinutes: l.DurationMinutes,
			OrderIndex:      i,
		})
	}
	for i, q := range req.Quiz {
		course.Quiz = append(course.Quiz, models.QuizQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			OrderIndex:    i,
		})
	}
	return course
}
