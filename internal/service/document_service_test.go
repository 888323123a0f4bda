package service

import (
	"context"
	"testing"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
)

const mb = 1024 * 1024

type fakeDocumentRepo struct {
	repository.DocumentRepository
	docs   map[uuid.UUID]*domain.Document
	counts map[uuid.UUID]int
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: map[uuid.UUID]*domain.Document{}, counts: map[uuid.UUID]int{}}
}

func (r *fakeDocumentRepo) Create(_ context.Context, d *domain.Document) error {
	r.docs[d.ID] = d
	r.counts[d.EntityID]++
	return nil
}

func (r *fakeDocumentRepo) CountByEntity(_ context.Context, _ domain.DocumentEntityType, entityID uuid.UUID) (int, error) {
	return r.counts[entityID], nil
}

type documentFixture struct {
	svc    *DocumentService
	docs   *fakeDocumentRepo
	tenant *domain.Tenant
	owner  authz.Actor
	broker authz.Actor
}

func newDocumentFixture() *documentFixture {
	company := uuid.New()
	f := &documentFixture{
		docs:   newFakeDocumentRepo(),
		owner:  ownerActor(company),
		broker: brokerActor(company),
	}
	f.tenant = &domain.Tenant{ID: uuid.New(), CompanyID: company, Name: "Carlos Pereira", CPF: "52998224725", CreatedBy: f.broker.UserID}
	f.svc = NewDocumentService(f.docs, newFakeOwnerRepo(), newFakeTenantRepo(f.tenant), newFakeContractRepo())
	return f
}

func (f *documentFixture) request() AddDocumentRequest {
	return AddDocumentRequest{
		EntityType:   domain.DocumentEntityTenant,
		EntityID:     f.tenant.ID,
		DocumentType: domain.DocContratoLocacao,
		Filename:     "contrato.pdf",
		OriginalName: "Contrato assinado.pdf",
		MimeType:     "application/pdf",
		Size:         3 * mb,
		URL:          "https://files.imob.com/contrato.pdf",
	}
}

func TestDocumentAddLimits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AddDocumentRequest)
		want   domain.ErrorCode
	}{
		{"pdf within limits", func(*AddDocumentRequest) {}, ""},
		{"webp image", func(r *AddDocumentRequest) { r.MimeType = "image/webp"; r.DocumentType = domain.DocRG; r.Size = 2 * mb }, ""},
		{"mime not allowed", func(r *AddDocumentRequest) { r.MimeType = "application/zip" }, domain.CodeBadRequest},
		{"gif not allowed", func(r *AddDocumentRequest) { r.MimeType = "image/gif" }, domain.CodeBadRequest},
		{"over 10MB", func(r *AddDocumentRequest) { r.Size = 10*mb + 1 }, domain.CodeBadRequest},
		{"over type limit", func(r *AddDocumentRequest) { r.DocumentType = domain.DocCPF; r.Size = 2*mb + 1 }, domain.CodeBadRequest},
		{"unknown document type", func(r *AddDocumentRequest) { r.DocumentType = "passaporte" }, domain.CodeBadRequest},
		{"unknown entity type", func(r *AddDocumentRequest) { r.EntityType = "property" }, domain.CodeBadRequest},
		{"missing entity", func(r *AddDocumentRequest) { r.EntityID = uuid.New() }, domain.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture()
			req := f.request()
			tt.mutate(&req)

			_, err := f.svc.Add(context.Background(), f.owner, req)
			if codeOf(err) != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDocumentAddCapsPerEntity(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()
	f.docs.counts[f.tenant.ID] = maxDocumentsPerEntity - 1

	dto, err := f.svc.Add(ctx, f.owner, f.request())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if dto.UploadedBy != f.owner.UserID {
		t.Errorf("uploadedBy = %s", dto.UploadedBy)
	}

	_, err = f.svc.Add(ctx, f.owner, f.request())
	if codeOf(err) != domain.CodeBadRequest {
		t.Errorf("twenty-first document error = %v, want BAD_REQUEST", err)
	}
	if len(f.docs.docs) != 1 {
		t.Errorf("stored %d documents, want 1", len(f.docs.docs))
	}
}

func TestDocumentAddBrokerScope(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	if _, err := f.svc.Add(ctx, f.broker, f.request()); err != nil {
		t.Fatalf("broker Add on own tenant: %v", err)
	}
	_, err := f.svc.Add(ctx, brokerActor(f.tenant.CompanyID), f.request())
	if codeOf(err) != domain.CodeForbidden {
		t.Errorf("other broker error = %v, want FORBIDDEN", err)
	}
	_, err = f.svc.Add(ctx, ownerActor(uuid.New()), f.request())
	if codeOf(err) != domain.CodeNotFound {
		t.Errorf("other company error = %v, want NOT_FOUND", err)
	}
}
