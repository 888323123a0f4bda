package domain

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractActive     ContractStatus = "active"
	ContractTerminated ContractStatus = "terminated"
	ContractCompleted  ContractStatus = "completed"
	ContractCancelled  ContractStatus = "cancelled"
	ContractExpired    ContractStatus = "expired"
)

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractActive, ContractTerminated, ContractCompleted, ContractCancelled, ContractExpired:
		return true
	}
	return false
}

type Contract struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	CompanyID         uuid.UUID      `json:"company_id" db:"company_id"`
	PropertyID        uuid.UUID      `json:"property_id" db:"property_id"`
	OwnerID           uuid.UUID      `json:"owner_id" db:"owner_id"`
	TenantID          uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	BrokerID          *uuid.UUID     `json:"broker_id,omitempty" db:"broker_id"`
	StartDate         time.Time      `json:"start_date" db:"start_date"`
	EndDate           time.Time      `json:"end_date" db:"end_date"`
	RentalAmount      int64          `json:"rental_amount" db:"rental_amount"` // cents
	PaymentDay        int            `json:"payment_day" db:"payment_day"`
	DepositAmount     *int64         `json:"deposit_amount,omitempty" db:"deposit_amount"`
	Status            ContractStatus `json:"status" db:"status"`
	TerminatedAt      *time.Time     `json:"terminated_at,omitempty" db:"terminated_at"`
	TerminationReason *string        `json:"termination_reason,omitempty" db:"termination_reason"`
	Notes             *string        `json:"notes,omitempty" db:"notes"`
	CreatedBy         uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

func (c *Contract) ScopeCompanyID() uuid.UUID { return c.CompanyID }

type ContractFilter struct {
	ListFilter
	BrokerID   *uuid.UUID
	Status     *ContractStatus
	PropertyID *uuid.UUID
	TenantID   *uuid.UUID
	EndsBefore *time.Time
}

type ContractStats struct {
	Total             int   `json:"total" db:"total"`
	Active            int   `json:"active" db:"active"`
	Terminated        int   `json:"terminated" db:"terminated"`
	Cancelled         int   `json:"cancelled" db:"cancelled"`
	Expired           int   `json:"expired" db:"expired"`
	TotalRentalAmount int64 `json:"total_rental_amount" db:"total_rental_amount"`
}
