package documents

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/query"
)

// Store persists documents. Finalize is the only write after Insert and
// must be an atomic compare-and-set on status = PROCESSING.
type Store interface {
	Insert(ctx context.Context, d *Document) error
	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	// List returns a page of documents matching f along with the total count.
	List(ctx context.Context, f Filter, page pagination.PageRequest) ([]Document, int, error)
	// Finalize moves a PROCESSING document to f.Status. It reports false,
	// without error, when the document is missing or no longer PROCESSING.
	Finalize(ctx context.Context, id uuid.UUID, f Finalization) (bool, error)
}

// Filter narrows a List. Zero fields match everything. Without Sort,
// documents are returned newest first.
type Filter struct {
	Owner  string
	Status Status
	Kind   Kind
	Sort   []query.SortField
}

var sortable = []string{"created_at", "updated_at", "status", "kind", "filename", "size_bytes"}

// ParseFilter reads owner, status, kind, and sort from query values.
func ParseFilter(values url.Values) (Filter, error) {
	f := Filter{Owner: values.Get("owner")}

	if v := values.Get("status"); v != "" {
		s, err := ParseStatus(v)
		if err != nil {
			return Filter{}, err
		}
		f.Status = s
	}

	if v := values.Get("kind"); v != "" {
		k, err := ParseKind(v)
		if err != nil {
			return Filter{}, err
		}
		f.Kind = k
	}

	f.Sort = query.ParseSort(values.Get("sort"))
	for _, s := range f.Sort {
		if !slices.Contains(sortable, s.Field) {
			return Filter{}, fmt.Errorf("%w: cannot sort by %q", ErrBadRequest, s.Field)
		}
	}

	return f, nil
}

func (f Filter) matches(d *Document) bool {
	return (f.Owner == "" || d.OwnerPartnerID == f.Owner) &&
		(f.Status == "" || d.Status == f.Status) &&
		(f.Kind == "" || d.Kind == f.Kind)
}
