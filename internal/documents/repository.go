package documents

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/query"
	"github.com/JaimeStill/courier/pkg/repository"
)

var projection = query.NewProjection("documents").
	Project("id", "id").
	Project("owner_partner_id", "owner").
	Project("kind", "kind").
	Project("status", "status").
	Project("file_url", "file_url").
	Project("analysis_artifact_url", "analysis_artifact_url").
	Project("failure_reason", "failure_reason").
	Project("filename", "filename").
	Project("content_type", "content_type").
	Project("size_bytes", "size_bytes").
	Project("page_count", "page_count").
	Project("encrypted", "encrypted").
	Project("storage_key", "storage_key").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at")

var columns = projection.Columns()

type pgStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store over the documents table.
func NewPostgresStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Insert(ctx context.Context, d *Document) error {
	q := `
		INSERT INTO documents(id, owner_partner_id, kind, status, file_url, filename, content_type, size_bytes, page_count, encrypted, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + columns

	args := []any{
		d.ID,
		d.OwnerPartnerID,
		d.Kind,
		d.Status,
		d.FileURL,
		d.Filename,
		d.ContentType,
		d.SizeBytes,
		d.PageCount,
		d.Encrypted,
		d.StorageKey,
	}

	created, err := repository.One(ctx, s.db, q, args, scanDocument)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	*d = created
	return nil
}

func (s *pgStore) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q := `SELECT ` + columns + ` FROM documents WHERE id = $1`

	d, err := repository.One(ctx, s.db, q, []any{id}, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (s *pgStore) List(ctx context.Context, f Filter, page pagination.PageRequest) ([]Document, int, error) {
	b := query.NewBuilder(projection, query.SortField{Field: "created_at", Descending: true}, query.SortField{Field: "id"}).
		WhereEquals("owner", f.Owner).
		WhereEquals("status", f.Status).
		WhereEquals("kind", f.Kind)
	if len(f.Sort) > 0 {
		b.OrderBy(append(slices.Clone(f.Sort), query.SortField{Field: "id"}))
	}
	if err := b.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	var (
		docs  []Document
		total int
	)
	err := repository.Snapshot(ctx, s.db, func(q repository.DBTX) error {
		countSQL, countArgs := b.BuildCount()
		n, err := repository.Count(ctx, q, countSQL, countArgs...)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		total = n

		pageSQL, args := b.BuildPage(page.PageSize, page.Offset())
		docs, err = repository.Many(ctx, q, pageSQL, args, scanDocument)
		if err != nil {
			return fmt.Errorf("query documents: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (s *pgStore) Finalize(ctx context.Context, id uuid.UUID, f Finalization) (bool, error) {
	var artifact, reason *string
	switch f.Status {
	case StatusAnalyzed:
		artifact = &f.AnalysisArtifactURL
	case StatusFailed:
		reason = &f.FailureReason
	}

	n, err := repository.Exec(
		ctx, s.db,
		`UPDATE documents
		SET status = $2, analysis_artifact_url = $3, failure_reason = $4, updated_at = now()
		WHERE id = $1 AND status = 'PROCESSING'`,
		id, f.Status, artifact, reason,
	)

	switch {
	case repository.IsCheckViolation(err):
		return false, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case err != nil:
		return false, fmt.Errorf("finalize document %s: %w", id, err)
	}
	return n == 1, nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.OwnerPartnerID,
		&d.Kind,
		&d.Status,
		&d.FileURL,
		&d.AnalysisArtifactURL,
		&d.FailureReason,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.Encrypted,
		&d.StorageKey,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
