// Package query filters and orders approval records for list views.
// Every function returns a new slice and leaves its input untouched.
package query

import (
	"sort"
	"strings"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// All disables a status or category filter
const All = "all"

// Entry is a record joined with the display names a caller resolved for it
type Entry struct {
	Record        *entity.ApprovalRecord
	ApplicantName string
	CodeName      string
}

// Criteria selects entries. Empty or "all" values are no-ops; supplied
// values combine with AND.
type Criteria struct {
	SearchTerm string
	Status     string
	Category   string
}

// Filter returns the entries matching criteria in their original order
func Filter(entries []Entry, criteria Criteria) []Entry {
	term := strings.ToLower(strings.TrimSpace(criteria.SearchTerm))
	status := normalizeStatus(criteria.Status)
	category := strings.TrimSpace(criteria.Category)

	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Record == nil {
			continue
		}
		if status != "" && e.Record.Status != status {
			continue
		}
		if category != "" && !strings.EqualFold(category, All) && string(e.Record.Category()) != category {
			continue
		}
		if term != "" && !matches(e, term) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// SortByCreatedAtDescending orders entries newest first. Ties keep their input order.
func SortByCreatedAtDescending(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Record.CreatedAt.After(sorted[j].Record.CreatedAt)
	})
	return sorted
}

// FilterAndSort applies Filter then SortByCreatedAtDescending
func FilterAndSort(entries []Entry, criteria Criteria) []Entry {
	return SortByCreatedAtDescending(Filter(entries, criteria))
}

// Records unwraps entries into their records
func Records(entries []Entry) []*entity.ApprovalRecord {
	records := make([]*entity.ApprovalRecord, len(entries))
	for i, e := range entries {
		records[i] = e.Record
	}
	return records
}

// Page returns the 1-based page of entries with the given size
func Page(entries []Entry, page, limit int) []Entry {
	if page < 1 || limit < 1 {
		return []Entry{}
	}
	start := (page - 1) * limit
	if start >= len(entries) {
		return []Entry{}
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	return append([]Entry(nil), entries[start:end]...)
}

func matches(e Entry, term string) bool {
	if strings.Contains(strings.ToLower(e.Record.Title()), term) {
		return true
	}
	if e.ApplicantName != "" && strings.Contains(strings.ToLower(e.ApplicantName), term) {
		return true
	}
	return e.CodeName != "" && strings.Contains(strings.ToLower(e.CodeName), term)
}

// normalizeStatus maps the status filter onto the five-state vocabulary.
// An unrecognized value matches nothing.
func normalizeStatus(value string) entity.Status {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, All) {
		return ""
	}
	if s, ok := entity.ParseLegacyStatus(v); ok {
		return s
	}
	return entity.Status(v)
}
