package query_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JaimeStill/courier/pkg/query"
)

func projection() *query.Projection {
	return query.NewProjection("documents").
		Project("id", "id").
		Project("owner_partner_id", "owner").
		Project("status", "status").
		Project("created_at", "created_at")
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in   string
		want []query.SortField
	}{
		{"", nil},
		{"status", []query.SortField{{Field: "status"}}},
		{"-created_at, id", []query.SortField{{Field: "created_at", Descending: true}, {Field: "id"}}},
		{",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := query.ParseSort(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSort(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildPage(t *testing.T) {
	owner := "acme"
	var status *string

	b := query.NewBuilder(projection(), query.SortField{Field: "created_at", Descending: true}).
		WhereEquals("owner", owner).
		WhereEquals("status", status)

	sql, args := b.BuildPage(10, 20)
	want := "SELECT id, owner_partner_id, status, created_at FROM documents WHERE owner_partner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"acme", 10, 20}) {
		t.Errorf("args = %v", args)
	}

	count, countArgs := b.BuildCount()
	if count != "SELECT COUNT(*) FROM documents WHERE owner_partner_id = $1" {
		t.Errorf("count = %q", count)
	}
	if len(countArgs) != 1 {
		t.Errorf("count args = %v", countArgs)
	}
}

func TestBuildNoConditions(t *testing.T) {
	sql, args := query.NewBuilder(projection()).WhereEquals("owner", "").BuildPage(5, 0)
	want := "SELECT id, owner_partner_id, status, created_at FROM documents LIMIT $1 OFFSET $2"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{5, 0}) {
		t.Errorf("args = %v", args)
	}
}

func TestOrderByOverridesDefault(t *testing.T) {
	b := query.NewBuilder(projection(), query.SortField{Field: "created_at", Descending: true}).
		OrderBy(query.ParseSort("status,id"))

	sql, _ := b.BuildPage(1, 0)
	want := "SELECT id, owner_partner_id, status, created_at FROM documents ORDER BY status ASC, id ASC LIMIT $1 OFFSET $2"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestUnknownField(t *testing.T) {
	tests := []struct {
		name string
		b    *query.Builder
	}{
		{"filter", query.NewBuilder(projection()).WhereEquals("password", "x")},
		{"sort", query.NewBuilder(projection()).OrderBy(query.ParseSort("1;DROP TABLE documents"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.b.Err(), query.ErrUnknownField) {
				t.Errorf("Err() = %v, want ErrUnknownField", tt.b.Err())
			}
		})
	}
}
