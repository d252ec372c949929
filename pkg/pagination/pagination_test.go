package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/courier/pkg/pagination"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := pagination.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 100 {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_PAGE_SIZE", "50")
		t.Setenv("TEST_MAX_PAGE", "200")

		cfg := pagination.Config{}
		err := cfg.Finalize(&pagination.Env{DefaultPageSize: "TEST_PAGE_SIZE", MaxPageSize: "TEST_MAX_PAGE"})
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 50 || cfg.MaxPageSize != 200 {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("non-numeric env", func(t *testing.T) {
		t.Setenv("TEST_PAGE_SIZE", "twenty")

		cfg := pagination.Config{}
		if err := cfg.Finalize(&pagination.Env{DefaultPageSize: "TEST_PAGE_SIZE"}); err == nil {
			t.Error("expected error for non-numeric page size")
		}
	})

	t.Run("default exceeds max", func(t *testing.T) {
		cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
		offset   int
	}{
		{"empty", "", 1, 20, 0},
		{"explicit", "page=3&page_size=10", 3, 10, 20},
		{"clamped to max", "page_size=500", 1, 100, 0},
		{"negative page", "page=-2", 1, 20, 0},
		{"garbage", "page=abc&page_size=xyz", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, defaultConfig())

			if req.Page != tt.page || req.PageSize != tt.pageSize {
				t.Errorf("req = %+v, want page %d size %d", req, tt.page, tt.pageSize)
			}
			if req.Offset() != tt.offset {
				t.Errorf("Offset() = %d, want %d", req.Offset(), tt.offset)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		pageSize   int
		totalPages int
	}{
		{"empty", 0, 20, 1},
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pagination.NewPageResult[int](nil, tt.total, 1, tt.pageSize)
			if r.TotalPages != tt.totalPages {
				t.Errorf("TotalPages = %d, want %d", r.TotalPages, tt.totalPages)
			}
			if r.Data == nil {
				t.Error("Data should be an empty slice, not nil")
			}
		})
	}
}

func TestMap(t *testing.T) {
	in := pagination.NewPageResult([]int{1, 2, 3}, 13, 2, 3)
	out := pagination.Map(in, func(n int) string { return string(rune('a' + n)) })

	if len(out.Data) != 3 || out.Data[0] != "b" {
		t.Errorf("Data = %v", out.Data)
	}
	if out.Total != 13 || out.Page != 2 || out.TotalPages != 5 {
		t.Errorf("metadata not preserved: %+v", out)
	}
}
