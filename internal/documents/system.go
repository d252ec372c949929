package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/courier/internal/partners"
	"github.com/JaimeStill/courier/pkg/audit"
	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/storage"
	"github.com/JaimeStill/courier/pkg/upload"
)

const pdfType = "application/pdf"

// System defines the public contract for document domain operations.
type System interface {
	Handler() *Handler

	// Ingest validates, decrypts, stores, and registers an upload. Nothing is
	// stored or registered when validation or decryption fails.
	Ingest(ctx context.Context, cmd IngestCommand) (*Document, error)
	// Get returns the requester's view of a document, or ErrNotFound when it
	// does not exist or is not visible to them.
	Get(ctx context.Context, req partners.Requester, id string) (*Disclosure, error)
	// Open streams the stored file behind Get's visibility rules. The caller
	// must close the reader.
	Open(ctx context.Context, req partners.Requester, id string) (*Disclosure, io.ReadCloser, error)
	List(ctx context.Context, req partners.Requester, f Filter, page pagination.PageRequest) (*pagination.PageResult[Disclosure], error)

	MarkAnalyzed(ctx context.Context, id uuid.UUID, artifactURL string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Decrypter removes PDF encryption. *decrypt.Adapter satisfies it.
type Decrypter interface {
	EnsureDecrypted(ctx context.Context, data []byte) ([]byte, bool, error)
}

type system struct {
	store      Store
	lifecycle  *Lifecycle
	blobs      storage.System
	gate       *upload.Gate
	decrypter  Decrypter
	recorder   audit.Recorder
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the document system.
func New(
	store Store,
	blobs storage.System,
	gate *upload.Gate,
	decrypter Decrypter,
	recorder audit.Recorder,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &system{
		store:      store,
		lifecycle:  NewLifecycle(store, recorder, logger),
		blobs:      blobs,
		gate:       gate,
		decrypter:  decrypter,
		recorder:   recorder,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination, s.gate.MaxSize())
}

func (s *system) Ingest(ctx context.Context, cmd IngestCommand) (*Document, error) {
	doc, err := s.ingest(ctx, cmd)
	if err != nil {
		s.recorder.Record(audit.IngestRejected, audit.ErrorAttributes(err).With(audit.Attributes{
			"ownerPartnerId": cmd.OwnerPartnerID,
			"filename":       cmd.Filename,
			"reason":         Code(err),
		}))
		return nil, err
	}

	s.recorder.Record(audit.IngestAccepted, audit.Attributes{
		"documentId":     doc.ID.String(),
		"ownerPartnerId": doc.OwnerPartnerID,
		"kind":           string(doc.Kind),
		"sizeBytes":      doc.SizeBytes,
		"encrypted":      doc.Encrypted,
	})
	return doc, nil
}

func (s *system) ingest(ctx context.Context, cmd IngestCommand) (*Document, error) {
	if cmd.OwnerPartnerID == "" {
		return nil, fmt.Errorf("%w: owner partner id required", ErrBadRequest)
	}
	if _, err := ParseKind(string(cmd.Kind)); err != nil {
		return nil, err
	}

	file, err := s.gate.Validate(ctx, cmd.Reader, cmd.DeclaredSize, cmd.DeclaredType)
	if err != nil {
		return nil, err
	}

	// Every file goes through the adapter: a PDF behind a binary prefix can
	// resolve to another accepted type and still open in a PDF reader.
	data, encrypted, err := s.decrypter.EnsureDecrypted(ctx, file.Data)
	if err != nil {
		return nil, err
	}

	contentType := file.ContentType
	if encrypted {
		contentType = pdfType
	}

	var pageCount *int
	if contentType == pdfType {
		pageCount = s.pageCount(data)
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := s.blobs.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	doc, err := s.lifecycle.Create(ctx, CreateCommand{
		ID:             id,
		OwnerPartnerID: cmd.OwnerPartnerID,
		Kind:           cmd.Kind,
		FileURL:        s.blobs.URL(key),
		StorageKey:     key,
		Filename:       cleanFilename(cmd.Filename),
		ContentType:    contentType,
		SizeBytes:      int64(len(data)),
		PageCount:      pageCount,
		Encrypted:      encrypted,
	})
	if err != nil {
		// A cancelled request must still remove the blob it stored.
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, err
	}

	return doc, nil
}

func (s *system) pageCount(data []byte) (n *int) {
	// Page count is best effort over untrusted input.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("PDF page count panicked", "panic", r)
			n = nil
		}
	}()

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		s.logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}
	return &count
}

func (s *system) Get(ctx context.Context, req partners.Requester, id string) (*Disclosure, error) {
	_, out, err := s.find(ctx, req, id)
	return out, err
}

func (s *system) Open(ctx context.Context, req partners.Requester, id string) (*Disclosure, io.ReadCloser, error) {
	doc, out, err := s.find(ctx, req, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return out, rc, nil
}

func (s *system) find(ctx context.Context, req partners.Requester, id string) (*Document, *Disclosure, error) {
	s.recorder.Record(audit.GetByIDRequest, audit.Attributes{"documentId": id})

	docID, err := uuid.Parse(id)
	if err != nil {
		s.recorder.Record(audit.GetByIDNotFound, audit.Attributes{"documentId": id})
		return nil, nil, ErrNotFound
	}

	doc, err := s.store.Find(ctx, docID)
	if err == nil {
		var out *Disclosure
		if out, err = Authorize(req, doc); err == nil {
			s.recorder.Record(audit.GetByIDSuccess, audit.Attributes{"documentId": id})
			return doc, out, nil
		}
	}

	if errors.Is(err, ErrNotFound) {
		s.recorder.Record(audit.GetByIDNotFound, audit.Attributes{"documentId": id})
		return nil, nil, ErrNotFound
	}

	attrs := audit.ErrorAttributes(err)
	s.recorder.Record(audit.GetByIDError, attrs.With(audit.Attributes{
		"documentId":   id,
		"errorMessage": attrs["error"],
		"stackTrace":   attrs["stack"],
	}))
	return nil, nil, err
}

func (s *system) List(ctx context.Context, req partners.Requester, f Filter, page pagination.PageRequest) (*pagination.PageResult[Disclosure], error) {
	page.Normalize(s.pagination)

	if !req.IsAdmin() {
		if req.PartnerID == "" {
			empty := pagination.NewPageResult[Disclosure](nil, 0, page.Page, page.PageSize)
			return &empty, nil
		}
		f.Owner = req.PartnerID
	}

	docs, total, err := s.store.List(ctx, f, page)
	if err != nil {
		return nil, err
	}

	visible := make([]Disclosure, 0, len(docs))
	for i := range docs {
		out, err := Authorize(req, &docs[i])
		if err != nil {
			continue
		}
		visible = append(visible, *out)
	}

	result := pagination.NewPageResult(visible, total, page.Page, page.PageSize)
	return &result, nil
}

func (s *system) MarkAnalyzed(ctx context.Context, id uuid.UUID, artifactURL string) error {
	return s.lifecycle.MarkAnalyzed(ctx, id, artifactURL)
}

func (s *system) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return s.lifecycle.MarkFailed(ctx, id, reason)
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", id, filename)
}

func cleanFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}

func sanitizeFilename(name string) string {
	return url.PathEscape(cleanFilename(name))
}
