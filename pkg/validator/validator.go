package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule, keyed by the JSON field name
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError collects every failed rule of a request body
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	registerString(v, "cpf", normalize.IsValidCPF)
	registerString(v, "cnpj", normalize.IsValidCNPJ)
	registerString(v, "cpf_cnpj", normalize.IsValidDocument)
	registerString(v, "br_phone", normalize.IsValidPhone)
	registerString(v, "cep", normalize.IsValidZipCode)
	registerString(v, "uf", normalize.IsValidState)

	return &Validator{validate: v}
}

// registerString adds a tag that checks string and *string fields with fn.
// Empty values pass so tags compose with omitempty and required.
func registerString(v *validator.Validate, tag string, fn func(string) bool) {
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		return fn(s)
	})
}

func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return toValidationError(validationErrs)
	}
	return err
}

func toValidationError(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{Fields: make([]FieldError, 0, len(errs))}
	for _, err := range errs {
		field := err.Field()
		var msg string

		switch err.Tag() {
		case "required":
			msg = fmt.Sprintf("%s é obrigatório", field)
		case "email":
			msg = fmt.Sprintf("%s deve ser um email válido", field)
		case "min":
			msg = fmt.Sprintf("%s deve ter no mínimo %s", field, err.Param())
		case "max":
			msg = fmt.Sprintf("%s deve ter no máximo %s", field, err.Param())
		case "uuid", "uuid4":
			msg = fmt.Sprintf("%s deve ser um UUID válido", field)
		case "gte":
			msg = fmt.Sprintf("%s deve ser maior ou igual a %s", field, err.Param())
		case "lte":
			msg = fmt.Sprintf("%s deve ser menor ou igual a %s", field, err.Param())
		case "oneof":
			msg = fmt.Sprintf("%s deve ser um de: %s", field, err.Param())
		case "cpf":
			msg = fmt.Sprintf("%s: CPF inválido", field)
		case "cnpj":
			msg = fmt.Sprintf("%s: CNPJ inválido", field)
		case "cpf_cnpj":
			msg = fmt.Sprintf("%s: CPF ou CNPJ inválido", field)
		case "br_phone":
			msg = fmt.Sprintf("%s: telefone inválido", field)
		case "cep":
			msg = fmt.Sprintf("%s: CEP inválido", field)
		case "uf":
			msg = fmt.Sprintf("%s: UF inválida", field)
		default:
			msg = fmt.Sprintf("%s é inválido (%s)", field, err.Tag())
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Rule: err.Tag(), Message: msg})
	}
	return out
}
