package pagination

import (
	"net/url"
	"testing"
)

func TestMakeFrom(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, DefaultLimit},
		{"page=3&limit=20", 3, 20},
		{"page=0", 1, DefaultLimit},
		{"page=-4&limit=-1", 1, DefaultLimit},
		{"limit=1000", 1, MaxLimit},
		{"page=abc&limit=xyz", 1, DefaultLimit},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got := MakeFrom(q)
		if got.Page != tt.wantPage || got.Limit != tt.wantLimit {
			t.Errorf("%q: got %+v, want page=%d limit=%d", tt.query, got, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := (Paginate{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Errorf("Offset: got %d, want 20", got)
	}
}

func TestMake(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		total      int64
		totalPages int
		next       *int
		prev       *int
	}{
		{"empty", 1, 0, 0, nil, nil},
		{"single page", 1, 5, 1, nil, nil},
		{"first of three", 1, 25, 3, intPtr(2), nil},
		{"middle", 2, 25, 3, intPtr(3), intPtr(1)},
		{"last", 3, 25, 3, nil, intPtr(2)},
		{"past the end", 9, 25, 3, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Make([]int(nil), Paginate{Page: tt.page, Limit: 10}, tt.total)
			if p.Data == nil {
				t.Error("Data must be non-nil")
			}
			if p.TotalPages != tt.totalPages {
				t.Errorf("TotalPages: got %d, want %d", p.TotalPages, tt.totalPages)
			}
			if !eqPtr(p.NextPage, tt.next) {
				t.Errorf("NextPage: got %v, want %v", deref(p.NextPage), deref(tt.next))
			}
			if !eqPtr(p.PreviousPage, tt.prev) {
				t.Errorf("PreviousPage: got %v, want %v", deref(p.PreviousPage), deref(tt.prev))
			}
		})
	}
}

func TestMap(t *testing.T) {
	src := Make([]int{1, 2}, Paginate{Page: 1, Limit: 2}, 4)
	dst := Map(src, func(i int) string { return string(rune('a' + i)) })
	if len(dst.Data) != 2 || dst.Data[0] != "b" || dst.Data[1] != "c" {
		t.Errorf("Data: got %v", dst.Data)
	}
	if dst.Total != 4 || dst.TotalPages != 2 || dst.NextPage == nil || *dst.NextPage != 2 {
		t.Errorf("metadata not preserved: %+v", dst)
	}
}

func intPtr(i int) *int { return &i }

func eqPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
