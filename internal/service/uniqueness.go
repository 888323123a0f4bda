package service

import (
	"context"
	"fmt"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// lookupFunc finds a company-scoped record by one of its unique keys and
// returns its id, or repository.ErrNotFound
type lookupFunc func(ctx context.Context, companyID uuid.UUID, key string) (uuid.UUID, error)

// ensureAvailable fails with CONFLICT when key is already taken inside the
// company by a record other than excludeID
func ensureAvailable(ctx context.Context, lookup lookupFunc, companyID uuid.UUID, key string, excludeID *uuid.UUID, conflictMsg string) error {
	id, err := lookup(ctx, companyID, key)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		log.WithError(err).WithField("company_id", companyID).Error("uniqueness: lookup failed")
		return domain.Internal("Erro ao validar dados. Tente novamente.").Wrap(err)
	}
	if excludeID != nil && id == *excludeID {
		return nil
	}
	return domain.Conflict(conflictMsg)
}

// ensureDocumentAvailable normalizes and validates a CPF or CNPJ, then
// checks it is unique in the company
func ensureDocumentAvailable(ctx context.Context, lookup lookupFunc, companyID uuid.UUID, document string, kind domain.DocumentKind, excludeID *uuid.UUID, conflictMsg string) (string, error) {
	digits := normalize.Digits(document)

	switch kind {
	case domain.DocumentKindCPF:
		if !normalize.IsValidCPF(digits) {
			return "", domain.NewError(domain.CodeInvalidCPF, "CPF inválido")
		}
	case domain.DocumentKindCNPJ:
		if !normalize.IsValidCNPJ(digits) {
			return "", domain.NewError(domain.CodeInvalidCNPJ, "CNPJ inválido")
		}
	default:
		return "", domain.BadRequest("Tipo de documento inválido. Use: cpf, cnpj.")
	}

	if err := ensureAvailable(ctx, lookup, companyID, digits, excludeID, conflictMsg); err != nil {
		return "", err
	}
	return digits, nil
}

// ensureEmailAvailable normalizes and validates email and checks it is
// unique in the company. label names the entity, e.g. "um locatário".
func ensureEmailAvailable(ctx context.Context, lookup lookupFunc, companyID uuid.UUID, email string, excludeID *uuid.UUID, label string) (string, error) {
	normalized := normalize.Email(email)
	if !normalize.IsValidEmail(normalized) {
		return "", domain.NewError(domain.CodeInvalidEmail, "E-mail inválido")
	}

	msg := fmt.Sprintf("Já existe %s cadastrado com este e-mail na sua empresa.", label)
	if err := ensureAvailable(ctx, lookup, companyID, normalized, excludeID, msg); err != nil {
		return "", err
	}
	return normalized, nil
}
