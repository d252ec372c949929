// Package documents implements the document domain for Courier: ingestion,
// the analysis status lifecycle, and ownership-gated retrieval.
package documents

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Status is the analysis progress of a document. It moves forward only:
// PROCESSING to ANALYZED or PROCESSING to FAILED.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusAnalyzed   Status = "ANALYZED"
	StatusFailed     Status = "FAILED"
)

// ParseStatus validates a client-supplied status filter.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusProcessing, StatusAnalyzed, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrBadRequest, s)
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusAnalyzed || s == StatusFailed
}

// Kind is the financial document variant.
type Kind string

const (
	KindInvoice       Kind = "invoice"
	KindPurchaseOrder Kind = "purchase_order"
)

// ParseKind validates a client-supplied kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindInvoice, KindPurchaseOrder:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Document is an ingested invoice or purchase order.
type Document struct {
	ID                  uuid.UUID `json:"id"`
	OwnerPartnerID      string    `json:"owner_partner_id"`
	Kind                Kind      `json:"kind"`
	Status              Status    `json:"status"`
	FileURL             string    `json:"file_url"`
	AnalysisArtifactURL *string   `json:"analysis_artifact_url"`
	FailureReason       *string   `json:"failure_reason"`
	Filename            string    `json:"filename"`
	ContentType         string    `json:"content_type"`
	SizeBytes           int64     `json:"size_bytes"`
	PageCount           *int      `json:"page_count"`
	Encrypted           bool      `json:"encrypted"`
	StorageKey          string    `json:"storage_key"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CreateCommand registers a document whose file is already stored.
type CreateCommand struct {
	ID             uuid.UUID
	OwnerPartnerID string
	Kind           Kind
	FileURL        string
	StorageKey     string
	Filename       string
	ContentType    string
	SizeBytes      int64
	PageCount      *int
	Encrypted      bool
}

// IngestCommand carries an upload stream and its declared attributes.
// DeclaredSize of zero or less means unknown.
type IngestCommand struct {
	Reader         io.Reader
	DeclaredSize   int64
	DeclaredType   string
	Filename       string
	OwnerPartnerID string
	Kind           Kind
}

// Finalization is the terminal state written by a finalize callback.
type Finalization struct {
	Status              Status
	AnalysisArtifactURL string
	FailureReason       string
}

// Disclosure is the view of a document a requester is allowed to see.
// Processing, AnalysisArtifactURL, and FailureReason are mutually exclusive.
type Disclosure struct {
	ID                  uuid.UUID `json:"id"`
	OwnerPartnerID      string    `json:"owner_partner_id"`
	Kind                Kind      `json:"kind"`
	Status              Status    `json:"status"`
	Filename            string    `json:"filename"`
	ContentType         string    `json:"content_type"`
	SizeBytes           int64     `json:"size_bytes"`
	PageCount           *int      `json:"page_count,omitempty"`
	Encrypted           bool      `json:"encrypted"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	Processing          bool      `json:"processing,omitempty"`
	AnalysisArtifactURL string    `json:"analysis_artifact_url,omitempty"`
	FailureReason       string    `json:"failure_reason,omitempty"`
}
