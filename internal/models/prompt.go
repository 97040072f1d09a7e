package models

import (
	"time"

	"github.com/lib/pq"
)

// Prompt is a shareable prompt-library entry.
type Prompt struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Body      string         `db:"body" json:"body"`
	Category  string         `db:"category" json:"category"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	AuthorID  string         `db:"author_id" json:"author_id"`
	Public    bool           `db:"public" json:"public"`
	CopyCount int            `db:"copy_count" json:"copy_count"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// PromptFilter provides filters for listing prompts.
type PromptFilter struct {
	Category  string
	Search    string
	AuthorID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
