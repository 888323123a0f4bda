package domain

import (
	"time"

	"github.com/google/uuid"
)

type DocumentEntityType string

const (
	DocumentEntityPropertyOwner DocumentEntityType = "property_owner"
	DocumentEntityTenant        DocumentEntityType = "tenant"
	DocumentEntityContract      DocumentEntityType = "contract"
)

func (t DocumentEntityType) Valid() bool {
	return t == DocumentEntityPropertyOwner || t == DocumentEntityTenant || t == DocumentEntityContract
}

type DocumentType string

const (
	DocRG                    DocumentType = "rg"
	DocCPF                   DocumentType = "cpf"
	DocCNPJ                  DocumentType = "cnpj"
	DocComprovanteResidencia DocumentType = "comprovante_residencia"
	DocComprovanteRenda      DocumentType = "comprovante_renda"
	DocContratoSocial        DocumentType = "contrato_social"
	DocProcuracao            DocumentType = "procuracao"
	DocContratoLocacao       DocumentType = "contrato_locacao"
	DocTermoVistoria         DocumentType = "termo_vistoria"
	DocLaudoAvaliacao        DocumentType = "laudo_avaliacao"
	DocOutros                DocumentType = "outros"
)

const mb = 1024 * 1024

// documentSizeLimits caps uploads per document type, in bytes
var documentSizeLimits = map[DocumentType]int64{
	DocRG:                    2 * mb,
	DocCPF:                   2 * mb,
	DocCNPJ:                  2 * mb,
	DocComprovanteResidencia: 5 * mb,
	DocComprovanteRenda:      5 * mb,
	DocContratoSocial:        10 * mb,
	DocProcuracao:            5 * mb,
	DocContratoLocacao:       10 * mb,
	DocTermoVistoria:         10 * mb,
	DocLaudoAvaliacao:        10 * mb,
	DocOutros:                5 * mb,
}

func (t DocumentType) Valid() bool {
	_, ok := documentSizeLimits[t]
	return ok
}

// SizeLimit returns the maximum upload size in bytes for t
func (t DocumentType) SizeLimit() int64 {
	return documentSizeLimits[t]
}

type Document struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	CompanyID    uuid.UUID          `json:"company_id" db:"company_id"`
	EntityType   DocumentEntityType `json:"entity_type" db:"entity_type"`
	EntityID     uuid.UUID          `json:"entity_id" db:"entity_id"`
	DocumentType DocumentType       `json:"document_type" db:"document_type"`
	Filename     string             `json:"filename" db:"filename"`
	OriginalName string             `json:"original_name" db:"original_name"`
	MimeType     string             `json:"mime_type" db:"mime_type"`
	Size         int64              `json:"size" db:"size"`
	URL          string             `json:"url" db:"url"`
	Description  *string            `json:"description,omitempty" db:"description"`
	UploadedBy   uuid.UUID          `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	DeletedAt    *time.Time         `json:"-" db:"deleted_at"`
	DeletedBy    *uuid.UUID         `json:"-" db:"deleted_by"`
}

func (d *Document) ScopeCompanyID() uuid.UUID { return d.CompanyID }
