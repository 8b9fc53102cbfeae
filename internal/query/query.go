// Package query builds the canonical listing query shared by the
// reservation, user and log list endpoints. Absent fields are omitted
// from the serialized form entirely: the listing backend distinguishes
// a missing filter from an explicitly empty one.
package query

import (
	"fmt"
	"strconv"
	"time"

	"net/url"
)

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

type ListQuery struct {
	Search    string
	Date      string // "2006-01-02"
	Page      int
	Limit     int
	SortBy    string
	SortOrder SortOrder
}

// WithSearch changes the search filter and resets the page to 1.
func (q ListQuery) WithSearch(search string) ListQuery {
	q.Search = search
	q.Page = 1
	return q
}

// WithDate changes the date filter and resets the page to 1.
func (q ListQuery) WithDate(date string) ListQuery {
	q.Date = date
	q.Page = 1
	return q
}

// WithSort changes the ordering and resets the page to 1.
func (q ListQuery) WithSort(sortBy string, order SortOrder) ListQuery {
	q.SortBy = sortBy
	q.SortOrder = order
	q.Page = 1
	return q
}

// WithPage moves to another page, preserving every filter.
func (q ListQuery) WithPage(page int) ListQuery {
	q.Page = page
	return q
}

// WithLimit changes the page size and resets the page to 1.
func (q ListQuery) WithLimit(limit int) ListQuery {
	q.Limit = limit
	q.Page = 1
	return q
}

// Values serializes the query. Zero-valued fields are not present in
// the result, never serialized as empty strings.
func (q ListQuery) Values() url.Values {
	v := url.Values{}

	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", string(q.SortOrder))
	}

	return v
}

// FromValues parses a serialized query back into a ListQuery. Unknown
// or malformed numeric fields are dropped rather than failing the
// whole request.
func FromValues(v url.Values) ListQuery {
	q := ListQuery{
		Search: v.Get("search"),
		Date:   v.Get("date"),
		SortBy: v.Get("sortBy"),
	}

	if page, err := strconv.Atoi(v.Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(v.Get("limit")); err == nil && limit > 0 {
		q.Limit = limit
	}

	switch SortOrder(v.Get("sortOrder")) {
	case SortAsc:
		q.SortOrder = SortAsc
	case SortDesc:
		q.SortOrder = SortDesc
	}

	return q
}

// Non-padded layouts accept both "5/3/2025" and "05/03/2025".
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2006-1-2",
}

// ParseDate normalizes a typed date in DD/MM/YYYY, DD-MM-YYYY or
// YYYY-MM-DD form to the wire form "2006-01-02". An input that does not
// name a real calendar date (day 31 of a 30-day month, for example) is
// rejected rather than rolled over to the next month.
func ParseDate(input string) (string, error) {
	const op = "query.ParseDate"

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, input)
		if err != nil {
			continue
		}
		return t.Format("2006-01-02"), nil
	}

	return "", fmt.Errorf("%s: unrecognized or impossible date %q", op, input)
}
