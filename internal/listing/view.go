package listing

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"pixel-admin/internal/model"
)

// AllIndustries disables the industry filter.
const AllIndustries = "all"

// SortKey selects the ordering of a view.
type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByName   SortKey = "name"
	SortByEvents SortKey = "events"
)

var sortKeys = []SortKey{SortByDate, SortByName, SortByEvents}

// ParseSortKey accepts "date", "name" or "events".
func ParseSortKey(s string) (SortKey, error) {
	for _, k := range sortKeys {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q: must be one of: date, name, events", s)
}

// Next cycles date -> name -> events -> date.
func (k SortKey) Next() SortKey {
	for i, c := range sortKeys {
		if c == k {
			return sortKeys[(i+1)%len(sortKeys)]
		}
	}
	return SortByDate
}

// Label is the human-readable sort description.
func (k SortKey) Label() string {
	switch k {
	case SortByDate:
		return "newest first"
	case SortByName:
		return "client name"
	case SortByEvents:
		return "most events"
	default:
		return string(k)
	}
}

// Query holds the operator's view predicates.
type Query struct {
	Search   string
	Industry string
	Sort     SortKey
	// Locale drives name collation; the zero value means English.
	Locale language.Tag
}

// ApplyView filters and sorts records without modifying them. Ties keep
// their input order.
func ApplyView(records []model.Pixel, q Query) []model.Pixel {
	term := strings.ToLower(q.Search)
	out := make([]model.Pixel, 0, len(records))
	for _, p := range records {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.ClientName), term) &&
			!strings.Contains(strings.ToLower(p.Website), term) {
			continue
		}
		if q.Industry != "" && q.Industry != AllIndustries && p.Industry != q.Industry {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Created().After(out[j].Created())
		})
	case SortByName:
		tag := q.Locale
		if tag == language.Und {
			tag = language.English
		}
		col := collate.New(tag)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].ClientName, out[j].ClientName) < 0
		})
	case SortByEvents:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EventCount > out[j].EventCount
		})
	}
	return out
}
