package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ai-super-hub/hub-api/internal/models"
)

// PromptRepository handles persistence of the prompt library.
type PromptRepository struct {
	db *sqlx.DB
}

// NewPromptRepository constructs the repository.
func NewPromptRepository(db *sqlx.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

const promptColumns = `id, title, body, category, tags, author_id, public, copy_count, created_at, updated_at`

// List returns public prompts filtered by the provided criteria. When
// AuthorID is set, the author's private prompts are included too.
func (r *PromptRepository) List(ctx context.Context, filter models.PromptFilter) ([]models.Prompt, int, error) {
	var conditions []string
	var args []interface{}

	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("(public = TRUE OR author_id = $%d)", len(args)+1))
		args = append(args, filter.AuthorID)
	} else {
		conditions = append(conditions, "public = TRUE")
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR body ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"created_at": "created_at",
		"title":      "title",
		"copies":     "copy_count",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM prompts%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		promptColumns, clause, orderBy, order, size, offset)

	var prompts []models.Prompt
	if err := r.db.SelectContext(ctx, &prompts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list prompts: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM prompts" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count prompts: %w", err)
	}
	return prompts, total, nil
}

// FindByID returns a prompt by its ID.
func (r *PromptRepository) FindByID(ctx context.Context, id string) (*models.Prompt, error) {
	query := fmt.Sprintf(`SELECT %s FROM prompts WHERE id = $1`, promptColumns)
	var prompt models.Prompt
	if err := r.db.GetContext(ctx, &prompt, query, id); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// Create persists a new prompt.
func (r *PromptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	if prompt.ID == "" {
		prompt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = now
	}
	prompt.UpdatedAt = now
	const query = `INSERT INTO prompts (id, title, body, category, tags, author_id, public, copy_count, created_at, updated_at)
        VALUES (:id, :title, :body, :category, :tags, :author_id, :public, :copy_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, prompt); err != nil {
		return fmt.Errorf("create prompt: %w", err)
	}
	return nil
}

// Update replaces mutable prompt fields.
func (r *PromptRepository) Update(ctx context.Context, prompt *models.Prompt) error {
	prompt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE prompts SET title = :title, body = :body, category = :category, tags = :tags,
        public = :public, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, prompt); err != nil {
		return fmt.Errorf("update prompt: %w", err)
	}
	return nil
}

// Delete removes a prompt.
func (r *PromptRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM prompts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	return nil
}

// IncrementCopyCount bumps the denormalized copy counter. Best effort.
func (r *PromptRepository) IncrementCopyCount(ctx context.Context, id string) error {
	const query = `UPDATE prompts SET copy_count = copy_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment copy count: %w", err)
	}
	return nil
}

// DeleteByAuthor cascades prompts for a deleted user.
func (r *PromptRepository) DeleteByAuthor(ctx context.Context, authorID string) error {
	const query = `DELETE FROM prompts WHERE author_id = $1`
	if _, err := r.db.ExecContext(ctx, query, authorID); err != nil {
		return fmt.Errorf("cascade prompts: %w", err)
	}
	return nil
}
