package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

type promptRepository interface {
	List(ctx context.Context, filter models.PromptFilter) ([]models.Prompt, int, error)
	FindByID(ctx context.Context, id string) (*models.Prompt, error)
	Create(ctx context.Context, prompt *models.Prompt) error
	Update(ctx context.Context, prompt *models.Prompt) error
	Delete(ctx context.Context, id string) error
	IncrementCopyCount(ctx context.Context, id string) error
}

// PromptRequest is the payload for creating or updating a prompt.
type PromptRequest struct {
	Title    string   `json:"title" validate:"required"`
	Body     string   `json:"body" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Tags     []string `json:"tags" validate:"max=10,dive,required"`
	Public   bool     `json:"public"`
}

// PromptListResult pairs a prompt page with its total count.
type PromptListResult struct {
	Prompts []models.Prompt `json:"prompts"`
	Total   int             `json:"total"`
}

// PromptService manages the shared prompt library. Private prompts are only
// visible to their author; edits require authorship or the admin role.
type PromptService struct {
	repo      promptRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPromptService constructs PromptService.
func NewPromptService(repo promptRepository, validate *validator.Validate, logger *zap.Logger) *PromptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromptService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of public prompts, or the caller's own when
// filter.AuthorID matches the caller.
func (s *PromptService) List(ctx context.Context, filter models.PromptFilter) (*PromptListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	prompts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prompts")
	}
	return &PromptListResult{Prompts: prompts, Total: total}, nil
}

// Get returns one prompt. Private prompts are hidden from everyone except
// the author and admins.
func (s *PromptService) Get(ctx context.Context, id, callerID string, isAdmin bool) (*models.Prompt, error) {
	prompt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "prompt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prompt")
	}

	if !prompt.Public && prompt.AuthorID != callerID && !isAdmin {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "prompt not found")
	}
	return prompt, nil
}

// Create inserts a new prompt owned by the caller.
func (s *PromptService) Create(ctx context.Context, authorID string, req PromptRequest) (*models.Prompt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prompt payload")
	}

	prompt := &models.Prompt{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Tags:     req.Tags,
		AuthorID: authorID,
		Public:   req.Public,
	}
	if err := s.repo.Create(ctx, prompt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create prompt")
	}
	return prompt, nil
}

// Update edits a prompt. Only the author or an admin may edit.
func (s *PromptService) Update(ctx context.Context, id, callerID string, isAdmin bool, req PromptRequest) (*models.Prompt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prompt payload")
	}

	prompt, err := s.Get(ctx, id, callerID, isAdmin)
	if err != nil {
		return nil, err
	}
	if prompt.AuthorID != callerID && !isAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author may edit this prompt")
	}

	prompt.Title = req.Title
	prompt.Body = req.Body
	prompt.Category = req.Category
	prompt.Tags = req.Tags
	prompt.Public = req.Public

	if err := s.repo.Update(ctx, prompt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update prompt")
	}
	return prompt, nil
}

// Delete removes a prompt. Only the author or an admin may delete.
func (s *PromptService) Delete(ctx context.Context, id, callerID string, isAdmin bool) error {
	prompt, err := s.Get(ctx, id, callerID, isAdmin)
	if err != nil {
		return err
	}
	if prompt.AuthorID != callerID && !isAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author may delete this prompt")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prompt")
	}
	return nil
}

// RecordCopy bumps the copy counter for a visible prompt. The counter is
// best effort and callers still get the prompt body on counter failure.
func (s *PromptService) RecordCopy(ctx context.Context, id, callerID string, isAdmin bool) (*models.Prompt, error) {
	prompt, err := s.Get(ctx, id, callerID, isAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementCopyCount(ctx, id); err != nil {
		s.logger.Warn("failed to increment copy count", zap.String("prompt_id", id), zap.Error(err))
	} else {
		prompt.CopyCount++
	}
	return prompt, nil
}
