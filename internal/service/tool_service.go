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

type toolRepository interface {
	List(ctx context.Context, filter models.ToolFilter) ([]models.Tool, int, error)
	FindByID(ctx context.Context, id string) (*models.Tool, error)
	Create(ctx context.Context, tool *models.Tool) error
	Update(ctx context.Context, tool *models.Tool) error
	Delete(ctx context.Context, id string) error
	IsFavorite(ctx context.Context, userID, toolID string) (bool, error)
	AddFavorite(ctx context.Context, userID, toolID string) error
	RemoveFavorite(ctx context.Context, userID, toolID string) error
	ListFavorites(ctx context.Context, userID string) ([]models.Tool, error)
}

// ToolRequest is the admin payload for creating or updating a tool entry.
type ToolRequest struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description" validate:"required"`
	Category    string              `json:"category" validate:"required"`
	WebsiteURL  string              `json:"website_url" validate:"required,url"`
	LogoURL     string              `json:"logo_url" validate:"omitempty,url"`
	Pricing     models.PricingModel `json:"pricing" validate:"required,oneof=FREE FREEMIUM PAID"`
	Rating      float64             `json:"rating" validate:"gte=0,lte=5"`
	Featured    bool                `json:"featured"`
}

// ToolListResult pairs a tool page with its total count.
type ToolListResult struct {
	Tools []models.Tool `json:"tools"`
	Total int           `json:"total"`
}

// ToolService manages the AI tools directory and per-user favorites.
type ToolService struct {
	repo      toolRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewToolService constructs ToolService.
func NewToolService(repo toolRepository, validate *validator.Validate, logger *zap.Logger) *ToolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of directory entries.
func (s *ToolService) List(ctx context.Context, filter models.ToolFilter) (*ToolListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	tools, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tools")
	}
	return &ToolListResult{Tools: tools, Total: total}, nil
}

// Get returns one tool by ID.
func (s *ToolService) Get(ctx context.Context, id string) (*models.Tool, error) {
	tool, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tool not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tool")
	}
	return tool, nil
}

// Create inserts a new tool entry.
func (s *ToolService) Create(ctx context.Context, req ToolRequest) (*models.Tool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tool payload")
	}

	tool := &models.Tool{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		WebsiteURL:  req.WebsiteURL,
		LogoURL:     req.LogoURL,
		Pricing:     req.Pricing,
		Rating:      req.Rating,
		Featured:    req.Featured,
	}
	if err := s.repo.Create(ctx, tool); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tool")
	}
	return tool, nil
}

// Update replaces a tool entry.
func (s *ToolService) Update(ctx context.Context, id string, req ToolRequest) (*models.Tool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tool payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Category = req.Category
	existing.WebsiteURL = req.WebsiteURL
	existing.LogoURL = req.LogoURL
	existing.Pricing = req.Pricing
	existing.Rating = req.Rating
	existing.Featured = req.Featured

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tool")
	}
	return existing, nil
}

// Delete removes a tool entry.
func (s *ToolService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tool")
	}
	return nil
}

// AddFavorite stars a tool for a user. Starring twice is a no-op success.
func (s *ToolService) AddFavorite(ctx context.Context, userID, toolID string) error {
	if _, err := s.Get(ctx, toolID); err != nil {
		return err
	}
	if err := s.repo.AddFavorite(ctx, userID, toolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add favorite")
	}
	return nil
}

// RemoveFavorite unstars a tool for a user.
func (s *ToolService) RemoveFavorite(ctx context.Context, userID, toolID string) error {
	fav, err := s.repo.IsFavorite(ctx, userID, toolID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check favorite")
	}
	if !fav {
		return appErrors.Clone(appErrors.ErrNotFound, "tool is not in favorites")
	}
	if err := s.repo.RemoveFavorite(ctx, userID, toolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove favorite")
	}
	return nil
}

// ListFavorites returns the user's starred tools.
func (s *ToolService) ListFavorites(ctx context.Context, userID string) ([]models.Tool, error) {
	tools, err := s.repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list favorites")
	}
	return tools, nil
}
