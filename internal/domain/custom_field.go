package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldFile     FieldType = "file"
)

var AllFieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldNumber, FieldEmail, FieldPhone,
	FieldSelect, FieldCheckbox, FieldDate, FieldFile,
}

func (t FieldType) Valid() bool { return slices.Contains(AllFieldTypes, t) }

type FieldValidation struct {
	MinLength *int    `json:"minLength,omitempty"`
	MaxLength *int    `json:"maxLength,omitempty"`
	Min       *int    `json:"min,omitempty"`
	Max       *int    `json:"max,omitempty"`
	Pattern   *string `json:"pattern,omitempty"`
}

type FileConfig struct {
	MaxFileSize  int      `json:"maxFileSize"` // MB
	MaxFiles     int      `json:"maxFiles"`
	AllowedTypes []string `json:"allowedTypes"`
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return errors.New("unsupported JSON scan type")
}

func (v FieldValidation) Value() (driver.Value, error) { return json.Marshal(v) }
func (v *FieldValidation) Scan(src any) error          { return scanJSON(src, v) }
func (c FileConfig) Value() (driver.Value, error)      { return json.Marshal(c) }
func (c *FileConfig) Scan(src any) error               { return scanJSON(src, c) }

type CustomField struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	CompanyID     uuid.UUID        `json:"company_id" db:"company_id"`
	Label         string           `json:"label" db:"label"`
	Type          FieldType        `json:"type" db:"type"`
	Placeholder   *string          `json:"placeholder,omitempty" db:"placeholder"`
	HelpText      *string          `json:"help_text,omitempty" db:"help_text"`
	IsRequired    bool             `json:"is_required" db:"is_required"`
	Options       pq.StringArray   `json:"options,omitempty" db:"options"`
	AllowMultiple *bool            `json:"allow_multiple,omitempty" db:"allow_multiple"`
	Validation    *FieldValidation `json:"validation,omitempty" db:"validation"`
	FileConfig    *FileConfig      `json:"file_config,omitempty" db:"file_config"`
	Order         int              `json:"order" db:"sort_order"`
	IsActive      bool             `json:"is_active" db:"is_active"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

func (f *CustomField) ScopeCompanyID() uuid.UUID { return f.CompanyID }

type CustomFieldResponse struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	FieldID   uuid.UUID `json:"field_id" db:"field_id"`
	Value     *string   `json:"value" db:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
