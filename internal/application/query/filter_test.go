package query

import (
	"reflect"
	"testing"
	"time"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

var base = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

func entry(id string, status entity.Status, form entity.FormData, created time.Time) Entry {
	return Entry{Record: &entity.ApprovalRecord{
		ID:        id,
		FormData:  form,
		Status:    status,
		CreatedAt: created,
	}}
}

func expense(title string) entity.FormData {
	return entity.ExpenseForm{BaseForm: entity.BaseForm{Title: title}}
}

func leave(title string) entity.FormData {
	return entity.LeaveForm{BaseForm: entity.BaseForm{Title: title}}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Record.ID
	}
	return out
}

func sampleEntries() []Entry {
	return []Entry{
		entry("1", entity.StatusSubmitted, expense("出張費用申請"), base),
		entry("2", entity.StatusApproved, leave("有給休暇申請"), base),
		entry("3", entity.StatusDraft, expense("会食費"), base),
	}
}

func TestFilter_SearchTermAndAllStatus(t *testing.T) {
	entries := sampleEntries()

	got := FilterAndSort(entries, Criteria{SearchTerm: "費", Status: "all"})
	if want := []string{"1", "3"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("FilterAndSort() = %v, want %v", ids(got), want)
	}
}

func TestFilter(t *testing.T) {
	entries := sampleEntries()
	entries[0].ApplicantName = "Tanaka Taro"
	entries[1].CodeName = "有給休暇"

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"no criteria", Criteria{}, []string{"1", "2", "3"}},
		{"status", Criteria{Status: "approved"}, []string{"2"}},
		{"legacy pending", Criteria{Status: "pending"}, []string{"1"}},
		{"unknown status", Criteria{Status: "archived"}, []string{}},
		{"category", Criteria{Category: "EXP"}, []string{"1", "3"}},
		{"category all", Criteria{Category: "all"}, []string{"1", "2", "3"}},
		{"applicant name case-insensitive", Criteria{SearchTerm: "tanaka"}, []string{"1"}},
		{"code name", Criteria{SearchTerm: "有給"}, []string{"2"}},
		{"combined with AND", Criteria{SearchTerm: "費", Category: "EXP", Status: "draft"}, []string{"3"}},
		{"blank term", Criteria{SearchTerm: "   "}, []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(entries, tt.criteria)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Filter() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestSortByCreatedAtDescending(t *testing.T) {
	entries := []Entry{
		entry("old", entity.StatusDraft, leave("a"), base),
		entry("new-1", entity.StatusDraft, leave("b"), base.Add(2*time.Hour)),
		entry("mid", entity.StatusDraft, leave("c"), base.Add(time.Hour)),
		entry("new-2", entity.StatusDraft, leave("d"), base.Add(2*time.Hour)),
	}

	got := SortByCreatedAtDescending(entries)
	if want := []string{"new-1", "new-2", "mid", "old"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("SortByCreatedAtDescending() = %v, want %v", ids(got), want)
	}
	if want := []string{"old", "new-1", "mid", "new-2"}; !reflect.DeepEqual(ids(entries), want) {
		t.Errorf("input reordered to %v", ids(entries))
	}
}

func TestPage(t *testing.T) {
	entries := sampleEntries()

	tests := []struct {
		name  string
		page  int
		limit int
		want  []string
	}{
		{"first page", 1, 2, []string{"1", "2"}},
		{"last partial page", 2, 2, []string{"3"}},
		{"past the end", 3, 2, []string{}},
		{"invalid page", 0, 2, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Page(entries, tt.page, tt.limit)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Page() = %v, want %v", got, tt.want)
			}
		})
	}
}
