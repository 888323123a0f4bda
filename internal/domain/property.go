package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PropertyType string

const (
	PropertyHouse      PropertyType = "house"
	PropertyApartment  PropertyType = "apartment"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
	PropertyRural      PropertyType = "rural"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyHouse, PropertyApartment, PropertyLand, PropertyCommercial, PropertyRural:
		return true
	}
	return false
}

type ListingType string

const (
	ListingRent ListingType = "rent"
	ListingSale ListingType = "sale"
	ListingBoth ListingType = "both"
)

func (l ListingType) Valid() bool {
	return l == ListingRent || l == ListingSale || l == ListingBoth
}

func (l ListingType) ForRent() bool { return l == ListingRent || l == ListingBoth }
func (l ListingType) ForSale() bool { return l == ListingSale || l == ListingBoth }

type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "available"
	PropertyRented      PropertyStatus = "rented"
	PropertySold        PropertyStatus = "sold"
	PropertyMaintenance PropertyStatus = "maintenance"
	PropertyUnavailable PropertyStatus = "unavailable"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyAvailable, PropertyRented, PropertySold, PropertyMaintenance, PropertyUnavailable:
		return true
	}
	return false
}

// PropertyFeatures is stored as JSONB (hasPool, hasGarage, ...)
type PropertyFeatures map[string]bool

func (f PropertyFeatures) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f)
}

func (f *PropertyFeatures) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = PropertyFeatures{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("property features: unsupported scan type")
	}
	return json.Unmarshal(data, f)
}

type Property struct {
	ID                   uuid.UUID        `json:"id" db:"id"`
	Code                 *string          `json:"code,omitempty" db:"code"`
	CompanyID            uuid.UUID        `json:"company_id" db:"company_id"`
	OwnerID              uuid.UUID        `json:"owner_id" db:"owner_id"`
	BrokerID             *uuid.UUID       `json:"broker_id,omitempty" db:"broker_id"`
	Title                string           `json:"title" db:"title"`
	Description          *string          `json:"description,omitempty" db:"description"`
	Type                 PropertyType     `json:"type" db:"type"`
	ListingType          ListingType      `json:"listing_type" db:"listing_type"`
	Status               PropertyStatus   `json:"status" db:"status"`
	Address              *string          `json:"address,omitempty" db:"address"`
	AddressNumber        *string          `json:"address_number,omitempty" db:"address_number"`
	AddressComplement    *string          `json:"address_complement,omitempty" db:"address_complement"`
	Neighborhood         *string          `json:"neighborhood,omitempty" db:"neighborhood"`
	City                 *string          `json:"city,omitempty" db:"city"`
	State                *string          `json:"state,omitempty" db:"state"`
	ZipCode              *string          `json:"zip_code,omitempty" db:"zip_code"`
	Bedrooms             int              `json:"bedrooms" db:"bedrooms"`
	Bathrooms            int              `json:"bathrooms" db:"bathrooms"`
	Suites               int              `json:"suites" db:"suites"`
	ParkingSpaces        int              `json:"parking_spaces" db:"parking_spaces"`
	Area                 *int             `json:"area,omitempty" db:"area"`
	TotalArea            *int             `json:"total_area,omitempty" db:"total_area"`
	BuiltArea            *int             `json:"built_area,omitempty" db:"built_area"`
	Floor                *int             `json:"floor,omitempty" db:"floor"`
	TotalFloors          *int             `json:"total_floors,omitempty" db:"total_floors"`
	YearBuilt            *int             `json:"year_built,omitempty" db:"year_built"`
	RentalPrice          *int64           `json:"rental_price,omitempty" db:"rental_price"`
	SalePrice            *int64           `json:"sale_price,omitempty" db:"sale_price"`
	IPTUPrice            *int64           `json:"iptu_price,omitempty" db:"iptu_price"`
	CondoFee             *int64           `json:"condo_fee,omitempty" db:"condo_fee"`
	CommissionPercentage *int             `json:"commission_percentage,omitempty" db:"commission_percentage"` // 500 = 5.00%
	CommissionValue      *int64           `json:"commission_value,omitempty" db:"commission_value"`
	IsMarketplace        bool             `json:"is_marketplace" db:"is_marketplace"`
	Notes                *string          `json:"notes,omitempty" db:"notes"`
	Features             PropertyFeatures `json:"features" db:"features"`
	CreatedBy            uuid.UUID        `json:"created_by" db:"created_by"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt            *time.Time       `json:"-" db:"deleted_at"`
	DeletedBy            *uuid.UUID       `json:"-" db:"deleted_by"`
}

func (p *Property) ScopeCompanyID() uuid.UUID { return p.CompanyID }

// PropertyCode formats the n-th property of a company, e.g. IMV-00042
func PropertyCode(n int) string {
	return fmt.Sprintf("IMV-%05d", n)
}

type PropertyPhoto struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`
	URL        string    `json:"url" db:"url"`
	IsPrimary  bool      `json:"is_primary" db:"is_primary"`
	Order      int       `json:"order" db:"sort_order"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type PropertyFilter struct {
	ListFilter
	BrokerID    *uuid.UUID
	Type        *PropertyType
	ListingType *ListingType
	Status      *PropertyStatus
	City        string
}

type PropertyStats struct {
	Total       int `json:"total" db:"total"`
	Available   int `json:"available" db:"available"`
	Rented      int `json:"rented" db:"rented"`
	Sold        int `json:"sold" db:"sold"`
	Maintenance int `json:"maintenance" db:"maintenance"`
}
