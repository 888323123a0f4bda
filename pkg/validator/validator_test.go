package validator

import (
	"errors"
	"testing"
)

type tenantRequest struct {
	Name  string  `json:"name" validate:"required,min=2"`
	CPF   string  `json:"cpf" validate:"required,cpf"`
	Phone *string `json:"phone" validate:"omitempty,br_phone"`
	State string  `json:"state" validate:"omitempty,uf"`
	Zip   string  `json:"zip_code" validate:"omitempty,cep"`
}

func TestValidateCustomTags(t *testing.T) {
	v := NewValidator()
	phone := "(11) 98765-4321"

	ok := tenantRequest{Name: "Ana Souza", CPF: "529.982.247-25", Phone: &phone, State: "sp", Zip: "01310-100"}
	if err := v.Validate(&ok); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	bad := "123"
	err := v.Validate(&tenantRequest{Name: "A", CPF: "111.111.111-11", Phone: &bad, State: "SPX", Zip: "1"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %T %v, want *ValidationError", err, err)
	}

	rules := map[string]string{}
	for _, f := range verr.Fields {
		rules[f.Field] = f.Rule
	}
	want := map[string]string{"name": "min", "cpf": "cpf", "phone": "br_phone", "state": "uf", "zip_code": "cep"}
	for field, rule := range want {
		if rules[field] != rule {
			t.Errorf("field %s rule = %q, want %q", field, rules[field], rule)
		}
	}
}

func TestValidateRequired(t *testing.T) {
	err := NewValidator().Validate(&tenantRequest{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("got %d field errors, want 2: %v", len(verr.Fields), verr.Fields)
	}
	if verr.Error() == "" {
		t.Error("empty message")
	}
}
