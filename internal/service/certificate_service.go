package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	"github.com/ai-super-hub/hub-api/pkg/certificate"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

type certificateEnrollmentReader interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
}

type certificateCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type certificateUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type certificateRenderer interface {
	Render(data certificate.Data) ([]byte, error)
}

// CertificateService renders completion certificates on demand. Nothing is
// stored; the PDF is produced from enrollment state at request time.
type CertificateService struct {
	enrollments certificateEnrollmentReader
	courses     certificateCourseReader
	users       certificateUserReader
	renderer    certificateRenderer
	logger      *zap.Logger
}

// NewCertificateService constructs CertificateService.
func NewCertificateService(enrollments certificateEnrollmentReader, courses certificateCourseReader, users certificateUserReader, renderer certificateRenderer, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		enrollments: enrollments,
		courses:     courses,
		users:       users,
		renderer:    renderer,
		logger:      logger,
	}
}

// Render produces the certificate PDF for the caller's enrollment. The
// enrollment must carry an issued certificate.
func (s *CertificateService) Render(ctx context.Context, userID, courseID string) ([]byte, error) {
	enrollment, err := s.enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.CertificateIssued {
		return nil, appErrors.ErrCertificateNotOwed
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	issuedAt := time.Now().UTC()
	if enrollment.CompletedAt != nil {
		issuedAt = *enrollment.CompletedAt
	}

	pdf, err := s.renderer.Render(certificate.Data{
		RecipientName: user.FullName,
		CourseTitle:   course.Title,
		Score:         enrollment.BestQuizScore,
		IssuedAt:      issuedAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return pdf, nil
}
