package domain

import (
	"time"

	"github.com/google/uuid"
)

type DocumentKind string

const (
	DocumentKindCPF  DocumentKind = "cpf"
	DocumentKindCNPJ DocumentKind = "cnpj"
)

type PropertyOwner struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	CompanyID         uuid.UUID      `json:"company_id" db:"company_id"`
	Name              string         `json:"name" db:"name"`
	DocumentType      DocumentKind   `json:"document_type" db:"document_type"`
	Document          string         `json:"document" db:"document"`
	RG                *string        `json:"rg,omitempty" db:"rg"`
	Nationality       *string        `json:"nationality,omitempty" db:"nationality"`
	MaritalStatus     *MaritalStatus `json:"marital_status,omitempty" db:"marital_status"`
	Profession        *string        `json:"profession,omitempty" db:"profession"`
	Email             *string        `json:"email,omitempty" db:"email"`
	Phone             *string        `json:"phone,omitempty" db:"phone"`
	PhoneSecondary    *string        `json:"phone_secondary,omitempty" db:"phone_secondary"`
	Address           *string        `json:"address,omitempty" db:"address"`
	AddressNumber     *string        `json:"address_number,omitempty" db:"address_number"`
	AddressComplement *string        `json:"address_complement,omitempty" db:"address_complement"`
	Neighborhood      *string        `json:"neighborhood,omitempty" db:"neighborhood"`
	City              *string        `json:"city,omitempty" db:"city"`
	State             *string        `json:"state,omitempty" db:"state"`
	ZipCode           *string        `json:"zip_code,omitempty" db:"zip_code"`
	BirthDate         *string        `json:"birth_date,omitempty" db:"birth_date"`
	PhotoURL          *string        `json:"photo_url,omitempty" db:"photo_url"`
	Notes             *string        `json:"notes,omitempty" db:"notes"`
	CreatedBy         uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

func (o *PropertyOwner) ScopeCompanyID() uuid.UUID { return o.CompanyID }
