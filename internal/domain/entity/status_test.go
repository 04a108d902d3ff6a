package entity

import "testing"

func TestParseLegacyStatus(t *testing.T) {
	tests := []struct {
		input  string
		want   Status
		wantOK bool
	}{
		{"pending", StatusSubmitted, true},
		{"PENDING", StatusSubmitted, true},
		{"approved", StatusApproved, true},
		{"rejected", StatusRejected, true},
		{"draft", StatusDraft, true},
		{" returned ", StatusReturned, true},
		{"all", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLegacyStatus(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLegacyStatus(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range AllStatuses() {
		want := s == StatusApproved || s == StatusRejected
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}

func TestCategory_Support(t *testing.T) {
	tests := []struct {
		category  Category
		supported bool
		reserved  bool
	}{
		{CategoryExpense, true, false},
		{CategoryTransport, true, false},
		{CategoryLeave, true, false},
		{CategoryNoCost, true, false},
		{CategoryApproval, false, true},
		{CategoryAbsence, false, true},
		{Category("XXX"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := tt.category.IsSupported(); got != tt.supported {
				t.Errorf("IsSupported() = %v, want %v", got, tt.supported)
			}
			if got := tt.category.IsReserved(); got != tt.reserved {
				t.Errorf("IsReserved() = %v, want %v", got, tt.reserved)
			}
		})
	}
}
