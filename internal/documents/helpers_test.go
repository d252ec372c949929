package documents_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/JaimeStill/courier/internal/documents"
	"github.com/JaimeStill/courier/pkg/audit"
	"github.com/JaimeStill/courier/pkg/decrypt"
	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/storage"
	"github.com/JaimeStill/courier/pkg/upload"
)

type recorded struct {
	Type  audit.EventType
	Attrs audit.Attributes
}

type captureRecorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *captureRecorder) Record(t audit.EventType, attrs audit.Attributes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{Type: t, Attrs: attrs})
}

func (r *captureRecorder) count(t audit.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *captureRecorder) last(t audit.EventType) (audit.Attributes, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i].Attrs, true
		}
	}
	return nil, false
}

type fakeCapability struct {
	available bool
	out       []byte
	err       error
}

func (f *fakeCapability) Name() string                     { return "fake" }
func (f *fakeCapability) Available(_ context.Context) bool { return f.available }

func (f *fakeCapability) Decrypt(_ context.Context, _ []byte) ([]byte, error) {
	return f.out, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var plainPDF = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// encryptedPDF returns a structurally encrypted PDF padded to size bytes.
func encryptedPDF(size int) []byte {
	head := []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	tail := []byte("\ntrailer\n<< /Root 1 0 R /Encrypt 5 0 R >>\n%%EOF\n")
	pad := max(size-len(head)-len(tail), 0)
	return append(append(head, bytes.Repeat([]byte(" "), pad)...), tail...)
}

type fixture struct {
	sys      documents.System
	store    *documents.MemoryStore
	blobs    *storage.Memory
	recorder *captureRecorder
}

func newFixture(t *testing.T, capability decrypt.Capability) *fixture {
	t.Helper()

	uploadCfg := upload.Config{}
	if err := uploadCfg.Finalize(nil); err != nil {
		t.Fatalf("upload finalize failed: %v", err)
	}
	decryptCfg := decrypt.Config{Timeout: "2s"}
	if err := decryptCfg.Finalize(nil); err != nil {
		t.Fatalf("decrypt finalize failed: %v", err)
	}
	pageCfg := pagination.Config{}
	if err := pageCfg.Finalize(nil); err != nil {
		t.Fatalf("pagination finalize failed: %v", err)
	}

	rec := &captureRecorder{}
	store := documents.NewMemoryStore()
	blobs := storage.NewMemory("documents")
	adapter := decrypt.New([]decrypt.Capability{capability}, &decryptCfg, rec, discardLogger())

	return &fixture{
		sys:      documents.New(store, blobs, upload.New(&uploadCfg), adapter, rec, discardLogger(), pageCfg),
		store:    store,
		blobs:    blobs,
		recorder: rec,
	}
}
