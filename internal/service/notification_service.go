package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	"github.com/ai-super-hub/hub-api/pkg/jobs"
)

const jobTypeCertificateEmail = "certificate_email"

type notificationUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type certificateMailer interface {
	SendCertificate(toEmail, toName, courseTitle string) error
}

type certificateEmailPayload struct {
	UserID      string
	CourseTitle string
}

// NotificationService delivers user notifications off the request path.
// Emails are enqueued on an in-memory queue and retried on failure.
type NotificationService struct {
	users  notificationUserReader
	mailer certificateMailer
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its worker queue. Call
// Start before use and Stop on shutdown.
func NewNotificationService(users notificationUserReader, mailer certificateMailer, logger *zap.Logger, cfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{users: users, mailer: mailer, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// CertificateEarned enqueues a certificate email for the user. Delivery is
// best effort and never blocks the caller.
func (s *NotificationService) CertificateEarned(ctx context.Context, userID, courseTitle string) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeCertificateEmail,
		Payload: certificateEmailPayload{UserID: userID, CourseTitle: courseTitle},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue certificate email",
			zap.String("user_id", userID),
			zap.String("course_title", courseTitle),
			zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeCertificateEmail:
		payload, ok := job.Payload.(certificateEmailPayload)
		if !ok {
			s.logger.Error("unexpected payload type", zap.String("job_id", job.ID), zap.String("type", job.Type))
			return nil
		}
		return s.sendCertificateEmail(ctx, payload)
	default:
		s.logger.Error("unknown job type", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
}

func (s *NotificationService) sendCertificateEmail(ctx context.Context, payload certificateEmailPayload) error {
	findCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user, err := s.users.FindByID(findCtx, payload.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// User deleted between the gate firing and delivery.
			return nil
		}
		return fmt.Errorf("load user %s: %w", payload.UserID, err)
	}

	if err := s.mailer.SendCertificate(user.Email, user.FullName, payload.CourseTitle); err != nil {
		return fmt.Errorf("send certificate email: %w", err)
	}

	s.logger.Info("certificate email sent",
		zap.String("user_id", user.ID),
		zap.String("course_title", payload.CourseTitle))
	return nil
}
