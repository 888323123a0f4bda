package service

import (
	"context"
	"strings"
	"testing"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

func newOwnerService(owners *fakeOwnerRepo) (*PropertyOwnerService, *fakePropertyRepo, *fakeContractRepo) {
	properties, contracts := newFakePropertyRepo(), newFakeContractRepo()
	return NewPropertyOwnerService(owners, properties, contracts), properties, contracts
}

func companyOwner() CreatePropertyOwnerRequest {
	return CreatePropertyOwnerRequest{Name: "Construtora Horizonte", DocumentType: domain.DocumentKindCNPJ, Document: "11.222.333/0001-81"}
}

func TestPropertyOwnerDocumentUniquePerCompany(t *testing.T) {
	repo := newFakeOwnerRepo()
	svc, _, _ := newOwnerService(repo)
	ctx := context.Background()
	company := uuid.New()
	actor := ownerActor(company)

	dto, err := svc.Create(ctx, actor, companyOwner())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Document != "11222333000181" {
		t.Errorf("document = %q, want digits only", dto.Document)
	}

	_, err = svc.Create(ctx, brokerActor(company), companyOwner())
	if codeOf(err) != domain.CodeConflict {
		t.Errorf("same company error = %v, want CONFLICT", err)
	}

	other := uuid.New()
	if _, err := svc.Create(ctx, ownerActor(other), companyOwner()); err != nil {
		t.Errorf("other company Create: %v", err)
	}
	if len(repo.owners) != 2 {
		t.Errorf("stored %d owners, want 2", len(repo.owners))
	}
}

func TestPropertyOwnerCreateRejections(t *testing.T) {
	company := uuid.New()
	actor := ownerActor(company)

	tests := []struct {
		name   string
		mutate func(*CreatePropertyOwnerRequest)
		want   domain.ErrorCode
	}{
		{"bad cnpj", func(r *CreatePropertyOwnerRequest) { r.Document = "11222333000182" }, domain.CodeInvalidCNPJ},
		{"bad cpf", func(r *CreatePropertyOwnerRequest) { r.DocumentType = domain.DocumentKindCPF; r.Document = "11111111111" }, domain.CodeInvalidCPF},
		{"bad email", func(r *CreatePropertyOwnerRequest) { r.Email = strPtr("sem-arroba") }, domain.CodeInvalidEmail},
		{"bad zip code", func(r *CreatePropertyOwnerRequest) { r.ZipCode = strPtr("123") }, domain.CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newOwnerService(newFakeOwnerRepo())
			req := companyOwner()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), actor, req)
			if codeOf(err) != tt.want {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestPropertyOwnerUpdateDocumentConflict(t *testing.T) {
	company := uuid.New()
	actor := ownerActor(company)
	taken := &domain.PropertyOwner{ID: uuid.New(), CompanyID: company, Name: "Outro", DocumentType: domain.DocumentKindCPF, Document: "52998224725", CreatedBy: actor.UserID}
	own := &domain.PropertyOwner{ID: uuid.New(), CompanyID: company, Name: "Maria", DocumentType: domain.DocumentKindCPF, Document: "39053344705", CreatedBy: actor.UserID}
	svc, _, _ := newOwnerService(newFakeOwnerRepo(taken, own))
	ctx := context.Background()

	_, err := svc.Update(ctx, actor, own.ID, UpdatePropertyOwnerRequest{Document: strPtr("529.982.247-25")})
	if codeOf(err) != domain.CodeConflict {
		t.Errorf("error = %v, want CONFLICT", err)
	}

	dto, err := svc.Update(ctx, actor, own.ID, UpdatePropertyOwnerRequest{Document: strPtr("390.533.447-05"), Name: strPtr("Maria Souza")})
	if err != nil {
		t.Fatalf("Update keeping own document: %v", err)
	}
	if dto.Name != "Maria Souza" || dto.Document != "39053344705" {
		t.Errorf("dto = %+v", dto)
	}
}

func TestPropertyOwnerDeleteRefusesLinkedRecords(t *testing.T) {
	company := uuid.New()
	actor := ownerActor(company)

	tests := []struct {
		name       string
		properties int
		contracts  int
		wantMsg    string
	}{
		{"linked properties", 2, 0, "2 imóvel(is)"},
		{"linked contracts", 0, 3, "3 contrato(s)"},
		{"free", 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := &domain.PropertyOwner{ID: uuid.New(), CompanyID: company, Name: "Maria", CreatedBy: actor.UserID}
			repo := newFakeOwnerRepo(owner)
			svc, properties, contracts := newOwnerService(repo)
			properties.byOwner[owner.ID] = tt.properties
			contracts.byOwner[owner.ID] = tt.contracts

			err := svc.Delete(context.Background(), actor, owner.ID)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("Delete: %v", err)
				}
				if len(repo.deleted) != 1 {
					t.Errorf("deleted %v", repo.deleted)
				}
				return
			}
			appErr, ok := domain.AsAppError(err)
			if !ok || appErr.Code != domain.CodeBadRequest || !strings.Contains(appErr.Message, tt.wantMsg) {
				t.Errorf("error = %v, want BAD_REQUEST mentioning %q", err, tt.wantMsg)
			}
			if len(repo.deleted) != 0 {
				t.Errorf("deleted %v", repo.deleted)
			}
		})
	}
}

func TestPropertyOwnerBrokerSeesOnlyOwn(t *testing.T) {
	company := uuid.New()
	broker := brokerActor(company)
	other := &domain.PropertyOwner{ID: uuid.New(), CompanyID: company, Name: "Maria", CreatedBy: uuid.New()}
	foreign := &domain.PropertyOwner{ID: uuid.New(), CompanyID: uuid.New(), Name: "João", CreatedBy: broker.UserID}
	svc, _, _ := newOwnerService(newFakeOwnerRepo(other, foreign))
	ctx := context.Background()

	if _, err := svc.Get(ctx, broker, other.ID); codeOf(err) != domain.CodeForbidden {
		t.Errorf("get other broker's owner error = %v, want FORBIDDEN", err)
	}
	if err := svc.Delete(ctx, broker, other.ID); codeOf(err) != domain.CodeForbidden {
		t.Errorf("delete other broker's owner error = %v, want FORBIDDEN", err)
	}
	if _, err := svc.Get(ctx, broker, foreign.ID); codeOf(err) != domain.CodeNotFound {
		t.Errorf("get foreign owner error = %v, want NOT_FOUND", err)
	}
}
