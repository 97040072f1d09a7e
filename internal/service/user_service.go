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

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateProfile(ctx context.Context, id, fullName, avatarURL string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

type userEnrollmentCleaner interface {
	DeleteByUser(ctx context.Context, userID string) error
}

type userChatCleaner interface {
	DeleteByUser(ctx context.Context, userID string) error
}

type userFavoriteCleaner interface {
	DeleteFavoritesByUser(ctx context.Context, userID string) error
}

type userPromptCleaner interface {
	DeleteByAuthor(ctx context.Context, authorID string) error
}

// UserListResult pairs a user page with its total count.
type UserListResult struct {
	Users []models.User `json:"users"`
	Total int           `json:"total"`
}

// UserService manages user profiles and admin account operations.
type UserService struct {
	repo        userRepository
	enrollments userEnrollmentCleaner
	chats       userChatCleaner
	favorites   userFavoriteCleaner
	prompts     userPromptCleaner
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(repo userRepository, enrollments userEnrollmentCleaner, chats userChatCleaner, favorites userFavoriteCleaner, prompts userPromptCleaner, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		repo:        repo,
		enrollments: enrollments,
		chats:       chats,
		favorites:   favorites,
		prompts:     prompts,
		validator:   validate,
		logger:      logger,
	}
}

// Get returns one user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// List returns a page of users for the admin panel.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) (*UserListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return &UserListResult{Users: users, Total: total}, nil
}

// UpdateProfile edits the caller's display name and avatar.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, id, req.FullName, req.AvatarURL, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return s.Get(ctx, id)
}

// Delete removes a user and all data they own: sessions, enrollments, chat
// history, favorites and authored prompts.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke sessions")
	}
	if err := s.enrollments.DeleteByUser(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollments")
	}
	if err := s.chats.DeleteByUser(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete chat history")
	}
	if err := s.favorites.DeleteFavoritesByUser(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete favorites")
	}
	if err := s.prompts.DeleteByAuthor(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prompts")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}
