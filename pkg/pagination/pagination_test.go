package pagination

import "testing"

func TestNormalize(t *testing.T) {
	p := Params{Page: 0, PageSize: 0}.Normalize()
	if p.Page != 1 {
		t.Fatalf("expected page floor 1, got %d", p.Page)
	}
	if p.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", p.PageSize)
	}

	p = Params{Page: 3, PageSize: 500}.Normalize()
	if p.PageSize != MaxPageSize {
		t.Fatalf("expected page size cap %d, got %d", MaxPageSize, p.PageSize)
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 1, PageSize: 10}).Offset(); got != 0 {
		t.Fatalf("expected offset 0 for first page, got %d", got)
	}
	if got := (Params{Page: 4, PageSize: 10}).Offset(); got != 30 {
		t.Fatalf("expected offset 30, got %d", got)
	}
}

func TestTotalPagesFloor(t *testing.T) {
	if got := TotalPages(0, 25); got != 1 {
		t.Fatalf("expected 1 page for empty store, got %d", got)
	}
}

func TestTotalPagesCeil(t *testing.T) {
	cases := []struct {
		count int64
		size  int
		want  int
	}{
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{100, 10, 10},
		{101, 10, 11},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.count, tc.size); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tc.count, tc.size, got, tc.want)
		}
	}
}
