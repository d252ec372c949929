package documents_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/courier/internal/documents"
	"github.com/JaimeStill/courier/pkg/audit"
)

func newLifecycle(t *testing.T) (*documents.Lifecycle, *documents.MemoryStore, *captureRecorder) {
	t.Helper()
	store := documents.NewMemoryStore()
	rec := &captureRecorder{}
	return documents.NewLifecycle(store, rec, discardLogger()), store, rec
}

func create(t *testing.T, lc *documents.Lifecycle, owner string) *documents.Document {
	t.Helper()
	doc, err := lc.Create(context.Background(), documents.CreateCommand{
		OwnerPartnerID: owner,
		Kind:           documents.KindInvoice,
		FileURL:        "memory://documents/a.pdf",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return doc
}

func TestCreate(t *testing.T) {
	lc, _, _ := newLifecycle(t)
	doc := create(t, lc, "acme")

	if doc.Status != documents.StatusProcessing {
		t.Errorf("status = %s, want PROCESSING", doc.Status)
	}
	if doc.ID == uuid.Nil {
		t.Error("id not assigned")
	}
	if doc.AnalysisArtifactURL != nil || doc.FailureReason != nil {
		t.Error("terminal fields set on creation")
	}
	if doc.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestCreateValidation(t *testing.T) {
	lc, _, _ := newLifecycle(t)

	tests := []struct {
		name string
		cmd  documents.CreateCommand
		want error
	}{
		{"missing owner", documents.CreateCommand{Kind: documents.KindInvoice}, documents.ErrBadRequest},
		{"bad kind", documents.CreateCommand{OwnerPartnerID: "acme", Kind: "receipt"}, documents.ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lc.Create(context.Background(), tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMarkAnalyzedIdempotent(t *testing.T) {
	lc, store, rec := newLifecycle(t)
	doc := create(t, lc, "acme")
	ctx := context.Background()

	for range 2 {
		if err := lc.MarkAnalyzed(ctx, doc.ID, "https://artifacts/1.json"); err != nil {
			t.Fatalf("MarkAnalyzed() error = %v", err)
		}
	}

	got, _ := store.Find(ctx, doc.ID)
	if got.Status != documents.StatusAnalyzed {
		t.Errorf("status = %s, want ANALYZED", got.Status)
	}
	if got.AnalysisArtifactURL == nil || *got.AnalysisArtifactURL != "https://artifacts/1.json" {
		t.Errorf("artifact = %v", got.AnalysisArtifactURL)
	}
	if n := rec.count(audit.StatusTransition); n != 1 {
		t.Errorf("transition events = %d, want 1", n)
	}
}

func TestMarkFailedIdempotent(t *testing.T) {
	lc, store, _ := newLifecycle(t)
	doc := create(t, lc, "acme")
	ctx := context.Background()

	for range 2 {
		if err := lc.MarkFailed(ctx, doc.ID, "unreadable scan"); err != nil {
			t.Fatalf("MarkFailed() error = %v", err)
		}
	}

	got, _ := store.Find(ctx, doc.ID)
	if got.Status != documents.StatusFailed || got.AnalysisArtifactURL != nil {
		t.Errorf("document = %+v", got)
	}
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(lc *documents.Lifecycle, id uuid.UUID) error
		call  func(lc *documents.Lifecycle, id uuid.UUID) error
	}{
		{
			name:  "failed after analyzed",
			setup: func(lc *documents.Lifecycle, id uuid.UUID) error { return lc.MarkAnalyzed(ctx, id, "https://a") },
			call:  func(lc *documents.Lifecycle, id uuid.UUID) error { return lc.MarkFailed(ctx, id, "boom") },
		},
		{
			name:  "analyzed after failed",
			setup: func(lc *documents.Lifecycle, id uuid.UUID) error { return lc.MarkFailed(ctx, id, "boom") },
			call:  func(lc *documents.Lifecycle, id uuid.UUID) error { return lc.MarkAnalyzed(ctx, id, "https://a") },
		},
		{
			name: "empty artifact url",
			call: func(lc *documents.Lifecycle, id uuid.UUID) error { return lc.MarkAnalyzed(ctx, id, "") },
		},
		{
			name: "empty failure reason",
			call: func(lc *documents.Lifecycle, id uuid.UUID) error { return lc.MarkFailed(ctx, id, "") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc, store, rec := newLifecycle(t)
			doc := create(t, lc, "acme")

			if tt.setup != nil {
				if err := tt.setup(lc, doc.ID); err != nil {
					t.Fatalf("setup error = %v", err)
				}
			}
			before, _ := store.Find(ctx, doc.ID)

			err := tt.call(lc, doc.ID)
			if !errors.Is(err, documents.ErrInvalidTransition) {
				t.Fatalf("error = %v, want ErrInvalidTransition", err)
			}

			after, _ := store.Find(ctx, doc.ID)
			if after.Status != before.Status {
				t.Errorf("status changed from %s to %s", before.Status, after.Status)
			}

			attrs, ok := rec.last(audit.StatusTransitionInvalid)
			if !ok {
				t.Fatal("no STATUS_TRANSITION_INVALID event")
			}
			if attrs["documentId"] != doc.ID.String() {
				t.Errorf("documentId = %v", attrs["documentId"])
			}
		})
	}
}

func TestFinalizeMissingDocument(t *testing.T) {
	lc, _, _ := newLifecycle(t)

	err := lc.MarkAnalyzed(context.Background(), uuid.New(), "https://a")
	if !errors.Is(err, documents.ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestConcurrentFinalizeHasOneWinner(t *testing.T) {
	lc, store, rec := newLifecycle(t)
	doc := create(t, lc, "acme")
	ctx := context.Background()

	const n = 32
	errs := make([]error, n)
	var wg sync.WaitGroup

	for i := range n {
		wg.Go(func() {
			if i%2 == 0 {
				errs[i] = lc.MarkAnalyzed(ctx, doc.ID, "https://artifacts/x.json")
			} else {
				errs[i] = lc.MarkFailed(ctx, doc.ID, "engine crashed")
			}
		})
	}
	wg.Wait()

	final, _ := store.Find(ctx, doc.ID)
	if !final.Status.Terminal() {
		t.Fatalf("status = %s, want terminal", final.Status)
	}

	for i, err := range errs {
		analyzed := i%2 == 0
		won := (analyzed && final.Status == documents.StatusAnalyzed) ||
			(!analyzed && final.Status == documents.StatusFailed)

		if won && err != nil {
			t.Errorf("call %d matching final state returned %v", i, err)
		}
		if !won && !errors.Is(err, documents.ErrInvalidTransition) {
			t.Errorf("call %d conflicting with final state returned %v", i, err)
		}
	}

	if n := rec.count(audit.StatusTransition); n != 1 {
		t.Errorf("transition events = %d, want 1", n)
	}

	switch final.Status {
	case documents.StatusAnalyzed:
		if final.AnalysisArtifactURL == nil || final.FailureReason != nil {
			t.Errorf("mixed state: %+v", final)
		}
	case documents.StatusFailed:
		if final.FailureReason == nil || final.AnalysisArtifactURL != nil {
			t.Errorf("mixed state: %+v", final)
		}
	}
}
