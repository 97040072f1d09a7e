package models

import "time"

// PricingModel enumerates how an AI tool is priced.
type PricingModel string

const (
	PricingFree     PricingModel = "FREE"
	PricingFreemium PricingModel = "FREEMIUM"
	PricingPaid     PricingModel = "PAID"
)

// Tool is a directory entry for an external AI tool.
type Tool struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Description string       `db:"description" json:"description"`
	Category    string       `db:"category" json:"category"`
	WebsiteURL  string       `db:"website_url" json:"website_url"`
	LogoURL     string       `db:"logo_url" json:"logo_url,omitempty"`
	Pricing     PricingModel `db:"pricing" json:"pricing"`
	Rating      float64      `db:"rating" json:"rating"`
	Featured    bool         `db:"featured" json:"featured"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ToolFilter provides filters for listing tools.
type ToolFilter struct {
	Category  string
	Search    string
	Featured  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// FavoriteTool links a user to a tool they starred.
type FavoriteTool struct {
	UserID    string    `db:"user_id" json:"user_id"`
	ToolID    string    `db:"tool_id" json:"tool_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
