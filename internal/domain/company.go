package domain

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenancy boundary. Every tenant-scoped row carries its ID.
type Company struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	CNPJ      *string    `json:"cnpj,omitempty" db:"cnpj"`
	Email     *string    `json:"email,omitempty" db:"email"`
	Phone     *string    `json:"phone,omitempty" db:"phone"`
	Address   *string    `json:"address,omitempty" db:"address"`
	City      *string    `json:"city,omitempty" db:"city"`
	State     *string    `json:"state,omitempty" db:"state"`
	ZipCode   *string    `json:"zip_code,omitempty" db:"zip_code"`
	LogoURL   *string    `json:"logo_url,omitempty" db:"logo_url"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Scoped is implemented by every entity that belongs to a company
type Scoped interface {
	ScopeCompanyID() uuid.UUID
}
