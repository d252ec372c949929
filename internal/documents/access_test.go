package documents_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/courier/internal/documents"
	"github.com/JaimeStill/courier/internal/partners"
)

func ptr(s string) *string { return &s }

func TestAuthorize(t *testing.T) {
	owner := partners.Requester{PartnerID: "acme", Role: partners.RoleNormal}
	other := partners.Requester{PartnerID: "globex", Role: partners.RoleNormal}
	admin := partners.Requester{PartnerID: "ops", Role: partners.RoleAdmin}
	anonymous := partners.Requester{}

	processing := &documents.Document{ID: uuid.New(), OwnerPartnerID: "acme", Status: documents.StatusProcessing}
	analyzed := &documents.Document{ID: uuid.New(), OwnerPartnerID: "acme", Status: documents.StatusAnalyzed, AnalysisArtifactURL: ptr("https://a")}
	failed := &documents.Document{ID: uuid.New(), OwnerPartnerID: "acme", Status: documents.StatusFailed, FailureReason: ptr("bad scan")}

	tests := []struct {
		name       string
		req        partners.Requester
		doc        *documents.Document
		notFound   bool
		processing bool
		artifact   string
		reason     string
	}{
		{name: "owner processing", req: owner, doc: processing, processing: true},
		{name: "owner analyzed", req: owner, doc: analyzed, artifact: "https://a"},
		{name: "owner failed", req: owner, doc: failed, reason: "bad scan"},
		{name: "admin analyzed", req: admin, doc: analyzed, artifact: "https://a"},
		{name: "admin failed", req: admin, doc: failed, reason: "bad scan"},
		{name: "other processing", req: other, doc: processing, notFound: true},
		{name: "other analyzed", req: other, doc: analyzed, notFound: true},
		{name: "other failed", req: other, doc: failed, notFound: true},
		{name: "anonymous", req: anonymous, doc: analyzed, notFound: true},
		{name: "missing document", req: owner, doc: nil, notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := documents.Authorize(tt.req, tt.doc)
			if tt.notFound {
				if !errors.Is(err, documents.ErrNotFound) {
					t.Fatalf("error = %v, want ErrNotFound", err)
				}
				if documents.MapHTTPStatus(err) != 404 {
					t.Errorf("status = %d, want 404", documents.MapHTTPStatus(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}

			if got.Processing != tt.processing {
				t.Errorf("processing = %v, want %v", got.Processing, tt.processing)
			}
			if got.AnalysisArtifactURL != tt.artifact {
				t.Errorf("artifact = %q, want %q", got.AnalysisArtifactURL, tt.artifact)
			}
			if got.FailureReason != tt.reason {
				t.Errorf("reason = %q, want %q", got.FailureReason, tt.reason)
			}
		})
	}
}

func TestAuthorizeDoesNotMutate(t *testing.T) {
	doc := &documents.Document{ID: uuid.New(), OwnerPartnerID: "acme", Status: documents.StatusAnalyzed, AnalysisArtifactURL: ptr("https://a")}
	snapshot := *doc

	documents.Authorize(partners.Requester{PartnerID: "globex"}, doc)
	documents.Authorize(partners.Requester{PartnerID: "acme"}, doc)

	if doc.Status != snapshot.Status || doc.AnalysisArtifactURL != snapshot.AnalysisArtifactURL {
		t.Error("Authorize mutated the document")
	}
}
