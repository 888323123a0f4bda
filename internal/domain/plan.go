package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	FeatureCustomFields = "custom_fields"
	FeatureMarketplace  = "marketplace"
	FeatureReports      = "reports"
)

type Plan struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Slug         string         `json:"slug" db:"slug"`
	Description  *string        `json:"description,omitempty" db:"description"`
	Price        int64          `json:"price" db:"price"` // cents
	DurationDays int            `json:"duration_days" db:"duration_days"`
	MaxUsers     *int           `json:"max_users,omitempty" db:"max_users"`
	MaxManagers  *int           `json:"max_managers,omitempty" db:"max_managers"`
	Features     pq.StringArray `json:"features" db:"features"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

func (p *Plan) HasFeature(feature string) bool {
	return slices.Contains(p.Features, feature)
}
