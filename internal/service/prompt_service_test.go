package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

type mockPromptRepo struct {
	prompts map[string]*models.Prompt
	copies  map[string]int
}

func newMockPromptRepo() *mockPromptRepo {
	return &mockPromptRepo{prompts: make(map[string]*models.Prompt), copies: make(map[string]int)}
}

func (m *mockPromptRepo) List(ctx context.Context, filter models.PromptFilter) ([]models.Prompt, int, error) {
	var out []models.Prompt
	for _, p := range m.prompts {
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockPromptRepo) FindByID(ctx context.Context, id string) (*models.Prompt, error) {
	if p, ok := m.prompts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPromptRepo) Create(ctx context.Context, prompt *models.Prompt) error {
	if prompt.ID == "" {
		prompt.ID = "new-prompt"
	}
	m.prompts[prompt.ID] = prompt
	return nil
}

func (m *mockPromptRepo) Update(ctx context.Context, prompt *models.Prompt) error {
	m.prompts[prompt.ID] = prompt
	return nil
}

func (m *mockPromptRepo) Delete(ctx context.Context, id string) error {
	delete(m.prompts, id)
	return nil
}

func (m *mockPromptRepo) IncrementCopyCount(ctx context.Context, id string) error {
	m.copies[id]++
	if p, ok := m.prompts[id]; ok {
		p.CopyCount++
	}
	return nil
}

func seedPrompt(repo *mockPromptRepo, id, author string, public bool) {
	repo.prompts[id] = &models.Prompt{ID: id, Title: "T", Body: "B", Category: "AI", AuthorID: author, Public: public}
}

func newPromptFixture(t *testing.T) (*PromptService, *mockPromptRepo) {
	t.Helper()
	repo := newMockPromptRepo()
	svc := NewPromptService(repo, validator.New(), zap.NewNop())
	return svc, repo
}

func TestPromptGetHidesPrivateFromOthers(t *testing.T) {
	svc, repo := newPromptFixture(t)
	seedPrompt(repo, "p1", "author", false)

	_, err := svc.Get(context.Background(), "p1", "stranger", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	prompt, err := svc.Get(context.Background(), "p1", "author", false)
	require.NoError(t, err)
	assert.Equal(t, "p1", prompt.ID)

	_, err = svc.Get(context.Background(), "p1", "admin-user", true)
	require.NoError(t, err)
}

func TestPromptUpdateRequiresAuthorship(t *testing.T) {
	svc, repo := newPromptFixture(t)
	seedPrompt(repo, "p1", "author", true)

	req := PromptRequest{Title: "New", Body: "B", Category: "AI"}

	_, err := svc.Update(context.Background(), "p1", "stranger", false, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	prompt, err := svc.Update(context.Background(), "p1", "author", false, req)
	require.NoError(t, err)
	assert.Equal(t, "New", prompt.Title)

	_, err = svc.Update(context.Background(), "p1", "admin-user", true, req)
	require.NoError(t, err)
}

func TestPromptDeleteRequiresAuthorship(t *testing.T) {
	svc, repo := newPromptFixture(t)
	seedPrompt(repo, "p1", "author", true)

	err := svc.Delete(context.Background(), "p1", "stranger", false)
	require.Error(t, err)

	require.NoError(t, svc.Delete(context.Background(), "p1", "author", false))
	assert.Empty(t, repo.prompts)
}

func TestPromptRecordCopy(t *testing.T) {
	svc, repo := newPromptFixture(t)
	seedPrompt(repo, "p1", "author", true)

	prompt, err := svc.RecordCopy(context.Background(), "p1", "", false)
	require.NoError(t, err)
	assert.Equal(t, 1, prompt.CopyCount)
	assert.Equal(t, 1, repo.copies["p1"])

	prompt, err = svc.RecordCopy(context.Background(), "p1", "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, prompt.CopyCount)
}

func TestPromptCreateOwnedByCaller(t *testing.T) {
	svc, _ := newPromptFixture(t)

	prompt, err := svc.Create(context.Background(), "author", PromptRequest{
		Title:    "T",
		Body:     "B",
		Category: "AI",
		Tags:     []string{"chatgpt", "writing"},
		Public:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "author", prompt.AuthorID)
	assert.Equal(t, 0, prompt.CopyCount)
}
