package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	"github.com/ai-super-hub/hub-api/pkg/ai"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

const chatContextWindow = 20

type chatRepository interface {
	Append(ctx context.Context, message *models.ChatMessage) error
	History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type textGenerator interface {
	Generate(ctx context.Context, conversation []ai.Message) (string, error)
}

// ChatRequest carries one user message to the assistant.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatResponse returns the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatService runs the AI assistant: each message is answered by Gemini with
// the user's recent history as context, and both turns are persisted.
type ChatService struct {
	repo      chatRepository
	generator textGenerator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs ChatService. Metrics may be nil.
func NewChatService(repo chatRepository, generator textGenerator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{repo: repo, generator: generator, metrics: metrics, validator: validate, logger: logger}
}

// Send forwards a message to the model and persists both sides of the turn.
func (s *ChatService) Send(ctx context.Context, userID string, req ChatRequest) (*ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat payload")
	}

	history, err := s.repo.History(ctx, userID, chatContextWindow)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat history")
	}

	conversation := make([]ai.Message, 0, len(history)+1)
	for _, msg := range history {
		conversation = append(conversation, ai.Message{Role: string(msg.Role), Content: msg.Content})
	}
	conversation = append(conversation, ai.Message{Role: string(models.ChatRoleUser), Content: req.Message})

	reply, err := s.generator.Generate(ctx, conversation)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "assistant is unavailable")
	}

	userMsg := &models.ChatMessage{UserID: userID, Role: models.ChatRoleUser, Content: req.Message}
	if err := s.repo.Append(ctx, userMsg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist message")
	}
	modelMsg := &models.ChatMessage{UserID: userID, Role: models.ChatRoleModel, Content: reply}
	if err := s.repo.Append(ctx, modelMsg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist reply")
	}

	s.metrics.RecordChatMessage()
	return &ChatResponse{Reply: reply}, nil
}

// History returns the user's recent messages in chronological order.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	} else if limit > 200 {
		limit = 200
	}
	messages, err := s.repo.History(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat history")
	}
	return messages, nil
}

// Clear wipes the user's conversation.
func (s *ChatService) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear chat history")
	}
	return nil
}
