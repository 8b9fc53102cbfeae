package query

import "testing"

func TestParseDate_Formats(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"05/03/2025", "2025-03-05"},
		{"05-03-2025", "2025-03-05"},
		{"2025-03-05", "2025-03-05"},
		{"31/12/2025", "2025-12-31"},
	}

	for _, tc := range cases {
		got, err := ParseDate(tc.input)
		if err != nil {
			t.Fatalf("ParseDate(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDate(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseDate_RejectsRollover(t *testing.T) {
	// A JS Date would silently turn these into the next month.
	for _, input := range []string{"31/02/2025", "31-04-2025", "2025-02-30"} {
		if _, err := ParseDate(input); err == nil {
			t.Fatalf("ParseDate(%q): expected rejection", input)
		}
	}
}

func TestParseDate_RejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "tomorrow", "2025/03/05", "05.03.2025"} {
		if _, err := ParseDate(input); err == nil {
			t.Fatalf("ParseDate(%q): expected rejection", input)
		}
	}
}

func TestValues_OmitsEmptyFields(t *testing.T) {
	v := ListQuery{Search: "sala", Page: 2}.Values()

	if got := v.Get("search"); got != "sala" {
		t.Fatalf("expected search=sala, got %q", got)
	}
	if got := v.Get("page"); got != "2" {
		t.Fatalf("expected page=2, got %q", got)
	}

	for _, key := range []string{"date", "limit", "sortBy", "sortOrder"} {
		if _, present := v[key]; present {
			t.Fatalf("expected %q to be absent, got %q", key, v.Get(key))
		}
	}
}

func TestValues_EmptyQueryIsEmpty(t *testing.T) {
	if encoded := (ListQuery{}).Values().Encode(); encoded != "" {
		t.Fatalf("expected empty encoding, got %q", encoded)
	}
}

func TestFilterChangesResetPage(t *testing.T) {
	q := ListQuery{Page: 1, Limit: 10}

	q = q.WithPage(5)
	if q.Page != 5 {
		t.Fatalf("expected page 5, got %d", q.Page)
	}

	q = q.WithSearch("reuniao")
	if q.Page != 1 {
		t.Fatalf("search change must reset page to 1, got %d", q.Page)
	}

	q = q.WithPage(3)
	q = q.WithDate("2025-06-10")
	if q.Page != 1 {
		t.Fatalf("date change must reset page to 1, got %d", q.Page)
	}

	q = q.WithPage(7)
	q = q.WithSort("date", SortDesc)
	if q.Page != 1 {
		t.Fatalf("sort change must reset page to 1, got %d", q.Page)
	}

	if q.Search != "reuniao" || q.Date != "2025-06-10" || q.Limit != 10 {
		t.Fatalf("page and sort changes must preserve filters, got %+v", q)
	}
}

func TestPageChangePreservesFilters(t *testing.T) {
	q := ListQuery{}.WithSearch("sala").WithDate("2025-06-10").WithPage(4)

	if q.Search != "sala" || q.Date != "2025-06-10" {
		t.Fatalf("filters lost on page change: %+v", q)
	}
	if q.Page != 4 {
		t.Fatalf("expected page 4, got %d", q.Page)
	}
}

func TestFromValuesRoundTrip(t *testing.T) {
	q := ListQuery{
		Search:    "sala",
		Date:      "2025-06-10",
		Page:      2,
		Limit:     20,
		SortBy:    "date",
		SortOrder: SortDesc,
	}

	got := FromValues(q.Values())
	if got != q {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, q)
	}
}

func TestFromValuesDropsMalformed(t *testing.T) {
	v := ListQuery{Search: "x"}.Values()
	v.Set("page", "abc")
	v.Set("limit", "-5")
	v.Set("sortOrder", "sideways")

	got := FromValues(v)
	if got.Page != 0 || got.Limit != 0 || got.SortOrder != "" {
		t.Fatalf("malformed fields must be dropped, got %+v", got)
	}
}
