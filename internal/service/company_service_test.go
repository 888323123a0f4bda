package service

import (
	"context"
	"testing"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

func TestCompanyGetReturnsActorCompany(t *testing.T) {
	mine := &domain.Company{ID: uuid.New(), Name: "Imobiliária Central"}
	theirs := &domain.Company{ID: uuid.New(), Name: "Outra Imobiliária"}
	svc := NewCompanyService(newFakeCompanyRepo(mine, theirs))

	for _, actor := range []authz.Actor{ownerActor(mine.ID), brokerActor(mine.ID)} {
		dto, err := svc.Get(context.Background(), actor)
		if err != nil {
			t.Fatalf("Get as %s: %v", actor.Role, err)
		}
		if dto.ID != mine.ID || dto.Name != mine.Name {
			t.Errorf("Get as %s = %+v, want %s", actor.Role, dto, mine.ID)
		}
	}

	_, err := svc.Get(context.Background(), ownerActor(uuid.New()))
	if codeOf(err) != domain.CodeNotFound {
		t.Errorf("unknown company error = %v, want NOT_FOUND", err)
	}
}

func TestCompanyUpdateOwnerOnly(t *testing.T) {
	company := &domain.Company{ID: uuid.New(), Name: "Imobiliária Central"}
	repo := newFakeCompanyRepo(company)
	svc := NewCompanyService(repo)
	manager := authz.Actor{UserID: uuid.New(), Role: domain.RoleManager, CompanyID: &company.ID}

	for _, actor := range []authz.Actor{brokerActor(company.ID), manager} {
		_, err := svc.Update(context.Background(), actor, UpdateCompanyRequest{Name: strPtr("Nova")})
		if codeOf(err) != domain.CodeForbidden {
			t.Errorf("%s update error = %v, want FORBIDDEN", actor.Role, err)
		}
	}
	if repo.updates != 0 || company.Name != "Imobiliária Central" {
		t.Errorf("company changed by a non-owner: %+v", company)
	}
}

func TestCompanyUpdateValidatesAndNormalizes(t *testing.T) {
	tests := []struct {
		name string
		req  UpdateCompanyRequest
		want domain.ErrorCode
	}{
		{"bad cnpj", UpdateCompanyRequest{CNPJ: strPtr("11.222.333/0001-82")}, domain.CodeInvalidCNPJ},
		{"bad phone", UpdateCompanyRequest{Phone: strPtr("123")}, domain.CodeInvalidPhone},
		{"bad zip code", UpdateCompanyRequest{ZipCode: strPtr("1234")}, domain.CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			company := &domain.Company{ID: uuid.New(), Name: "Imobiliária Central"}
			svc := NewCompanyService(newFakeCompanyRepo(company))
			_, err := svc.Update(context.Background(), ownerActor(company.ID), tt.req)
			if codeOf(err) != tt.want {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}

	company := &domain.Company{ID: uuid.New(), Name: "Imobiliária Central"}
	svc := NewCompanyService(newFakeCompanyRepo(company))
	dto, err := svc.Update(context.Background(), ownerActor(company.ID), UpdateCompanyRequest{
		CNPJ:  strPtr("11.222.333/0001-81"),
		Email: strPtr(" Contato@Imob.com "),
		State: strPtr("sp"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if dto.CNPJ == nil || *dto.CNPJ != "11222333000181" {
		t.Errorf("cnpj = %v", dto.CNPJ)
	}
	if dto.Email == nil || *dto.Email != "contato@imob.com" {
		t.Errorf("email = %v", dto.Email)
	}
	if dto.State == nil || *dto.State != "SP" {
		t.Errorf("state = %v", dto.State)
	}
}
