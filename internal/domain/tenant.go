package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaritalStatus is shared by tenants and property owners
type MaritalStatus string

const (
	MaritalSingle     MaritalStatus = "solteiro"
	MaritalMarried    MaritalStatus = "casado"
	MaritalDivorced   MaritalStatus = "divorciado"
	MaritalWidowed    MaritalStatus = "viuvo"
	MaritalCivilUnion MaritalStatus = "uniao_estavel"
)

func (m MaritalStatus) Valid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed, MaritalCivilUnion:
		return true
	}
	return false
}

// Tenant is a renter (locatário) registered by a company
type Tenant struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	CompanyID        uuid.UUID      `json:"company_id" db:"company_id"`
	Name             string         `json:"name" db:"name"`
	CPF              string         `json:"cpf" db:"cpf"`
	Email            *string        `json:"email,omitempty" db:"email"`
	Phone            *string        `json:"phone,omitempty" db:"phone"`
	Address          *string        `json:"address,omitempty" db:"address"`
	City             *string        `json:"city,omitempty" db:"city"`
	State            *string        `json:"state,omitempty" db:"state"`
	ZipCode          *string        `json:"zip_code,omitempty" db:"zip_code"`
	BirthDate        *string        `json:"birth_date,omitempty" db:"birth_date"`
	MonthlyIncome    *int64         `json:"monthly_income,omitempty" db:"monthly_income"` // cents
	Employer         *string        `json:"employer,omitempty" db:"employer"`
	EmergencyContact *string        `json:"emergency_contact,omitempty" db:"emergency_contact"`
	EmergencyPhone   *string        `json:"emergency_phone,omitempty" db:"emergency_phone"`
	RG               *string        `json:"rg,omitempty" db:"rg"`
	Nationality      *string        `json:"nationality,omitempty" db:"nationality"`
	MaritalStatus    *MaritalStatus `json:"marital_status,omitempty" db:"marital_status"`
	Profession       *string        `json:"profession,omitempty" db:"profession"`
	PhotoURL         *string        `json:"photo_url,omitempty" db:"photo_url"`
	Notes            *string        `json:"notes,omitempty" db:"notes"`
	CreatedBy        uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

func (t *Tenant) ScopeCompanyID() uuid.UUID { return t.CompanyID }

// ListFilter is the common listing filter for tenant-scoped entities.
// CreatedBy restricts results to rows registered by a broker.
type ListFilter struct {
	CompanyID uuid.UUID
	CreatedBy *uuid.UUID
	Search    string
	Limit     int
	Offset    int
}
