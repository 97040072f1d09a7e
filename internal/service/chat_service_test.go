package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	"github.com/ai-super-hub/hub-api/pkg/ai"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

type mockChatRepo struct {
	messages  []models.ChatMessage
	lastLimit int
}

func (m *mockChatRepo) Append(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		message.ID = "msg"
	}
	m.messages = append(m.messages, *message)
	return nil
}

func (m *mockChatRepo) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	m.lastLimit = limit
	var out []models.ChatMessage
	for _, msg := range m.messages {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *mockChatRepo) DeleteByUser(ctx context.Context, userID string) error {
	var kept []models.ChatMessage
	for _, msg := range m.messages {
		if msg.UserID != userID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

type mockGenerator struct {
	reply        string
	err          error
	conversation []ai.Message
}

func (m *mockGenerator) Generate(ctx context.Context, conversation []ai.Message) (string, error) {
	m.conversation = conversation
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func TestChatSendPersistsBothTurns(t *testing.T) {
	repo := &mockChatRepo{}
	gen := &mockGenerator{reply: "Hello there"}
	svc := NewChatService(repo, gen, nil, validator.New(), zap.NewNop())

	res, err := svc.Send(context.Background(), "u1", ChatRequest{Message: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", res.Reply)

	require.Len(t, repo.messages, 2)
	assert.Equal(t, models.ChatRoleUser, repo.messages[0].Role)
	assert.Equal(t, "Hi", repo.messages[0].Content)
	assert.Equal(t, models.ChatRoleModel, repo.messages[1].Role)
	assert.Equal(t, "Hello there", repo.messages[1].Content)
}

func TestChatSendIncludesHistoryAsContext(t *testing.T) {
	repo := &mockChatRepo{}
	gen := &mockGenerator{reply: "reply"}
	svc := NewChatService(repo, gen, nil, validator.New(), zap.NewNop())

	_, err := svc.Send(context.Background(), "u1", ChatRequest{Message: "first"})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), "u1", ChatRequest{Message: "second"})
	require.NoError(t, err)

	// Second call sees first exchange plus the new message.
	require.Len(t, gen.conversation, 3)
	assert.Equal(t, "first", gen.conversation[0].Content)
	assert.Equal(t, "reply", gen.conversation[1].Content)
	assert.Equal(t, "second", gen.conversation[2].Content)
}

func TestChatSendGeneratorFailureNothingPersisted(t *testing.T) {
	repo := &mockChatRepo{}
	gen := &mockGenerator{err: errors.New("upstream down")}
	svc := NewChatService(repo, gen, nil, validator.New(), zap.NewNop())

	_, err := svc.Send(context.Background(), "u1", ChatRequest{Message: "Hi"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadGateway.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.messages)
}

func TestChatHistoryClampsLimit(t *testing.T) {
	repo := &mockChatRepo{}
	svc := NewChatService(repo, &mockGenerator{reply: "reply"}, nil, validator.New(), zap.NewNop())

	_, err := svc.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)

	_, err = svc.History(context.Background(), "u1", 120)
	require.NoError(t, err)
	assert.Equal(t, 120, repo.lastLimit)

	// Oversized requests clamp to the ceiling rather than resetting to the default.
	_, err = svc.History(context.Background(), "u1", 500)
	require.NoError(t, err)
	assert.Equal(t, 200, repo.lastLimit)
}

func TestChatClear(t *testing.T) {
	repo := &mockChatRepo{}
	gen := &mockGenerator{reply: "reply"}
	svc := NewChatService(repo, gen, nil, validator.New(), zap.NewNop())

	_, err := svc.Send(context.Background(), "u1", ChatRequest{Message: "Hi"})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(context.Background(), "u1"))

	history, err := svc.History(context.Background(), "u1", 50)
	require.NoError(t, err)
	assert.Empty(t, history)
}
