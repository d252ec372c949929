package documents

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/JaimeStill/courier/internal/partners"
	"github.com/JaimeStill/courier/pkg/handlers"
	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/routes"
	"github.com/JaimeStill/courier/pkg/upload"
)

// multipartOverhead bounds the non-file bytes of a multipart upload.
const multipartOverhead = 1 << 20

const maxFieldSize = 256

// Handler provides HTTP endpoints for partner document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, pagination
// config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Ingest},
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Get},
			{Method: "GET", Pattern: "/{id}/file", Handler: h.File},
		},
	}
}

// Ingest accepts either a multipart stream (kind and size fields followed by
// a file part) or a raw body with kind and filename query parameters.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requester(w, r)
	if !ok {
		return
	}

	body := &trackedBody{ReadCloser: http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)}
	r.Body = body

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		h.ingestRaw(w, r, req)
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		h.respondError(w, streamError(r, body, err))
		return
	}

	cmd := IngestCommand{
		OwnerPartnerID: req.PartnerID,
		Kind:           Kind(r.URL.Query().Get("kind")),
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			h.respondError(w, fmt.Errorf("%w: missing file part", ErrBadRequest))
			return
		}
		if err != nil {
			h.respondError(w, streamError(r, body, err))
			return
		}

		switch part.FormName() {
		case "kind":
			v, err := readField(part)
			if err != nil {
				h.respondError(w, streamError(r, body, err))
				return
			}
			cmd.Kind = Kind(v)
		case "size":
			v, err := readField(part)
			if err != nil {
				h.respondError(w, streamError(r, body, err))
				return
			}
			if cmd.DeclaredSize, err = strconv.ParseInt(v, 10, 64); err != nil {
				h.respondError(w, fmt.Errorf("%w: invalid size %q", ErrBadRequest, v))
				return
			}
		case "file":
			cmd.Reader = part
			cmd.Filename = part.FileName()
			cmd.DeclaredType = part.Header.Get("Content-Type")
			h.ingest(w, req, r, cmd)
			return
		default:
			part.Close()
		}
	}
}

func (h *Handler) ingestRaw(w http.ResponseWriter, r *http.Request, req partners.Requester) {
	q := r.URL.Query()
	h.ingest(w, req, r, IngestCommand{
		Reader:         r.Body,
		DeclaredSize:   r.ContentLength,
		DeclaredType:   r.Header.Get("Content-Type"),
		Filename:       q.Get("filename"),
		OwnerPartnerID: req.PartnerID,
		Kind:           Kind(q.Get("kind")),
	})
}

func (h *Handler) ingest(w http.ResponseWriter, req partners.Requester, r *http.Request, cmd IngestCommand) {
	doc, err := h.sys.Ingest(r.Context(), cmd)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out, err := Authorize(req, doc)
	if err != nil {
		handlers.RespondInternal(w, h.logger, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, out)
}

// List returns a paginated list of the documents visible to the requester.
// The owner filter only narrows results for admins.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requester(w, r)
	if !ok {
		return
	}

	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.respondError(w, err)
		return
	}
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), req, filter, page)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Get returns the requester's view of a single document.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requester(w, r)
	if !ok {
		return
	}

	out, err := h.sys.Get(r.Context(), req, r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, out)
}

// File streams the stored file of a document visible to the requester.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requester(w, r)
	if !ok {
		return
	}

	out, rc, err := h.sys.Open(r.Context(), req, r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set(
		"Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}),
	)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("document file stream interrupted", "id", out.ID, "error", err)
	}
}

func (h *Handler) requester(w http.ResponseWriter, r *http.Request) (partners.Requester, bool) {
	req, ok := partners.FromContext(r.Context())
	if !ok {
		handlers.RespondErrorCode(w, h.logger, http.StatusUnauthorized, "unauthenticated", partners.ErrUnauthenticated)
	}
	return req, ok
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)
	if status == http.StatusInternalServerError {
		handlers.RespondInternal(w, h.logger, err)
		return
	}
	handlers.RespondErrorCode(w, h.logger, status, Code(err), err)
}

func readField(part *multipart.Part) (string, error) {
	defer part.Close()
	b, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
	if err != nil {
		return "", fmt.Errorf("read field %s: %w", part.FormName(), err)
	}
	return strings.TrimSpace(string(b)), nil
}

// trackedBody remembers the first error the underlying request body returned,
// so multipart failures can be told apart from a broken connection.
type trackedBody struct {
	io.ReadCloser
	err error
}

func (b *trackedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && b.err == nil {
		b.err = err
	}
	return n, err
}

// streamError classifies a failure while reading the multipart envelope.
// Oversized bodies keep their size error, read failures and aborted requests
// are transport errors, and anything else is a malformed request.
func streamError(r *http.Request, body *trackedBody, err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(body.err, &tooLarge):
		return body.err
	case body.err != nil:
		return &upload.TransportError{Err: body.err}
	case r.Context().Err() != nil:
		return &upload.TransportError{Err: r.Context().Err()}
	default:
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
}
