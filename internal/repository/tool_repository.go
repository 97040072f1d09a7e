package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ai-super-hub/hub-api/internal/models"
)

// ToolRepository handles persistence of the AI tools directory.
type ToolRepository struct {
	db *sqlx.DB
}

// NewToolRepository constructs the repository.
func NewToolRepository(db *sqlx.DB) *ToolRepository {
	return &ToolRepository{db: db}
}

const toolColumns = `id, name, description, category, website_url, logo_url, pricing, rating, featured, created_at, updated_at`

// List returns tools filtered by the provided criteria.
func (r *ToolRepository) List(ctx context.Context, filter models.ToolFilter) ([]models.Tool, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("featured = $%d", len(args)+1))
		args = append(args, *filter.Featured)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "name",
		"rating":     "rating",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "rating"
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

	query := fmt.Sprintf(`SELECT %s FROM tools%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		toolColumns, clause, orderBy, order, size, offset)

	var tools []models.Tool
	if err := r.db.SelectContext(ctx, &tools, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tools: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM tools" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tools: %w", err)
	}
	return tools, total, nil
}

// FindByID returns a tool by its ID.
func (r *ToolRepository) FindByID(ctx context.Context, id string) (*models.Tool, error) {
	query := fmt.Sprintf(`SELECT %s FROM tools WHERE id = $1`, toolColumns)
	var tool models.Tool
	if err := r.db.GetContext(ctx, &tool, query, id); err != nil {
		return nil, err
	}
	return &tool, nil
}

// Create persists a new tool.
func (r *ToolRepository) Create(ctx context.Context, tool *models.Tool) error {
	if tool.ID == "" {
		tool.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tool.CreatedAt.IsZero() {
		tool.CreatedAt = now
	}
	tool.UpdatedAt = now
	const query = `INSERT INTO tools (id, name, description, category, website_url, logo_url, pricing, rating, featured, created_at, updated_at)
        VALUES (:id, :name, :description, :category, :website_url, :logo_url, :pricing, :rating, :featured, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tool); err != nil {
		return fmt.Errorf("create tool: %w", err)
	}
	return nil
}

// Update replaces mutable tool fields.
func (r *ToolRepository) Update(ctx context.Context, tool *models.Tool) error {
	tool.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tools SET name = :name, description = :description, category = :category,
        website_url = :website_url, logo_url = :logo_url, pricing = :pricing, rating = :rating,
        featured = :featured, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, tool); err != nil {
		return fmt.Errorf("update tool: %w", err)
	}
	return nil
}

// Delete removes a tool and its favorite links.
func (r *ToolRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tool: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorite_tools WHERE tool_id = $1`, id); err != nil {
		return fmt.Errorf("delete tool favorites: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tools WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tool: %w", err)
	}
	return nil
}

// IsFavorite reports whether the user starred the tool.
func (r *ToolRepository) IsFavorite(ctx context.Context, userID, toolID string) (bool, error) {
	const query = `SELECT 1 FROM favorite_tools WHERE user_id = $1 AND tool_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, toolID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return true, nil
}

// AddFavorite stars a tool for a user. Idempotent.
func (r *ToolRepository) AddFavorite(ctx context.Context, userID, toolID string) error {
	const query = `INSERT INTO favorite_tools (user_id, tool_id, created_at)
        VALUES ($1, $2, $3) ON CONFLICT (user_id, tool_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, toolID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unstars a tool for a user.
func (r *ToolRepository) RemoveFavorite(ctx context.Context, userID, toolID string) error {
	const query = `DELETE FROM favorite_tools WHERE user_id = $1 AND tool_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, toolID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// ListFavorites returns the user's starred tools.
func (r *ToolRepository) ListFavorites(ctx context.Context, userID string) ([]models.Tool, error) {
	query := fmt.Sprintf(`SELECT t.%s FROM tools t
        JOIN favorite_tools f ON f.tool_id = t.id
        WHERE f.user_id = $1 ORDER BY f.created_at DESC`, strings.ReplaceAll(toolColumns, ", ", ", t."))
	var tools []models.Tool
	if err := r.db.SelectContext(ctx, &tools, query, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return tools, nil
}

// DeleteFavoritesByUser cascades favorite links for a deleted user.
func (r *ToolRepository) DeleteFavoritesByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM favorite_tools WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("cascade favorites: %w", err)
	}
	return nil
}
