package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/courier/pkg/audit"
)

// Lifecycle owns every write to a document's status and its terminal
// fields. Finalize calls for the same document are linearized by the
// store's compare-and-set.
type Lifecycle struct {
	store    Store
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewLifecycle creates a Lifecycle over store.
func NewLifecycle(store Store, recorder audit.Recorder, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		store:    store,
		recorder: recorder,
		logger:   logger.With("system", "lifecycle"),
	}
}

// Create registers a document in PROCESSING.
func (l *Lifecycle) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if cmd.OwnerPartnerID == "" {
		return nil, fmt.Errorf("%w: owner partner id required", ErrBadRequest)
	}
	if _, err := ParseKind(string(cmd.Kind)); err != nil {
		return nil, err
	}

	id := cmd.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	d := &Document{
		ID:             id,
		OwnerPartnerID: cmd.OwnerPartnerID,
		Kind:           cmd.Kind,
		Status:         StatusProcessing,
		FileURL:        cmd.FileURL,
		Filename:       cmd.Filename,
		ContentType:    cmd.ContentType,
		SizeBytes:      cmd.SizeBytes,
		PageCount:      cmd.PageCount,
		Encrypted:      cmd.Encrypted,
		StorageKey:     cmd.StorageKey,
	}

	if err := l.store.Insert(ctx, d); err != nil {
		return nil, err
	}

	l.logger.Info("document created", "id", d.ID, "owner", d.OwnerPartnerID, "kind", d.Kind)
	return d, nil
}

// MarkAnalyzed finalizes a document as ANALYZED with its artifact location.
func (l *Lifecycle) MarkAnalyzed(ctx context.Context, id uuid.UUID, artifactURL string) error {
	if artifactURL == "" {
		return l.invalid(id, StatusAnalyzed, fmt.Errorf("%w: empty analysis artifact url", ErrInvalidTransition))
	}
	return l.finalize(ctx, id, Finalization{Status: StatusAnalyzed, AnalysisArtifactURL: artifactURL})
}

// MarkFailed finalizes a document as FAILED with a diagnostic reason.
func (l *Lifecycle) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	if reason == "" {
		return l.invalid(id, StatusFailed, fmt.Errorf("%w: empty failure reason", ErrInvalidTransition))
	}
	return l.finalize(ctx, id, Finalization{Status: StatusFailed, FailureReason: reason})
}

func (l *Lifecycle) finalize(ctx context.Context, id uuid.UUID, f Finalization) error {
	applied, err := l.store.Finalize(ctx, id, f)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return l.invalid(id, f.Status, err)
		}
		return err
	}

	if applied {
		l.recorder.Record(audit.StatusTransition, audit.Attributes{
			"documentId": id.String(),
			"from":       string(StatusProcessing),
			"to":         string(f.Status),
		})
		l.logger.Info("document finalized", "id", id, "status", f.Status)
		return nil
	}

	// The compare-and-set lost: the document is missing or already terminal,
	// and terminal states never change, so this read is stable.
	current, err := l.store.Find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return l.invalid(id, f.Status, fmt.Errorf("%w: document %s does not exist", ErrInvalidTransition, id))
	}
	if err != nil {
		return err
	}

	if current.Status == f.Status {
		if differs(current, f) {
			l.logger.Warn("repeated finalize with different payload ignored", "id", id, "status", f.Status)
		}
		return nil
	}

	return l.invalid(id, f.Status, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, f.Status))
}

func (l *Lifecycle) invalid(id uuid.UUID, to Status, err error) error {
	l.logger.Error("invalid status transition", "id", id, "to", to, "error", err)
	l.recorder.Record(audit.StatusTransitionInvalid, audit.ErrorAttributes(err).With(audit.Attributes{
		"documentId": id.String(),
		"to":         string(to),
	}))
	return err
}

func differs(d *Document, f Finalization) bool {
	switch f.Status {
	case StatusAnalyzed:
		return d.AnalysisArtifactURL == nil || *d.AnalysisArtifactURL != f.AnalysisArtifactURL
	case StatusFailed:
		return d.FailureReason == nil || *d.FailureReason != f.FailureReason
	}
	return false
}
