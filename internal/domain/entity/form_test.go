package entity

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMarshalFormData_TagsCategory(t *testing.T) {
	form := LeaveForm{
		BaseForm:  BaseForm{Title: "有給休暇申請"},
		StartDate: NewDate(2024, 8, 13),
		EndDate:   NewDate(2024, 8, 15),
		LeaveType: LeaveFullDay,
		Reason:    "夏季休暇",
	}

	data, err := MarshalFormData(form)
	if err != nil {
		t.Fatalf("MarshalFormData() error = %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("output is not a JSON object: %v", err)
	}
	if fields["category"] != "LEV" {
		t.Errorf("category = %v, want LEV", fields["category"])
	}
	if fields["startDate"] != "2024-08-13" {
		t.Errorf("startDate = %v, want 2024-08-13", fields["startDate"])
	}

	decoded, err := UnmarshalFormData(data)
	if err != nil {
		t.Fatalf("UnmarshalFormData() error = %v", err)
	}
	if decoded != FormData(form) {
		t.Errorf("UnmarshalFormData() = %+v, want %+v", decoded, form)
	}
}

func TestUnmarshalFormData_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"reserved category", `{"category":"APP","title":"x"}`},
		{"missing category", `{"title":"x"}`},
		{"bad date", `{"category":"LEV","startDate":"13/08/2024"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalFormData([]byte(tt.data)); err == nil {
				t.Error("UnmarshalFormData() should fail")
			}
		})
	}

	form, err := UnmarshalFormData([]byte("null"))
	if err != nil || form != nil {
		t.Errorf("UnmarshalFormData(null) = %v, %v; want nil, nil", form, err)
	}
}

func TestApprovalRecord_JSON(t *testing.T) {
	submitted := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	record := ApprovalRecord{
		ID:                "rec-1",
		ApplicantID:       "u-1",
		ApplicationCodeID: "c-exp",
		FormData: ExpenseForm{
			BaseForm:       BaseForm{Title: "会食費"},
			Subject:        SubjectEntertainment,
			Content:        "取引先との会食",
			RecipientID:    "r-1",
			Amount:         decimal.RequireFromString("12000"),
			BillingDate:    NewDate(2024, 7, 1),
			PaymentDueDate: NewDate(2024, 7, 31),
		},
		Status:      StatusSubmitted,
		SubmittedAt: &submitted,
		CreatedAt:   submitted,
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"category":"EXP"`) {
		t.Errorf("encoded record %s lacks the category tag", data)
	}

	var decoded ApprovalRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	expense, ok := decoded.FormData.(ExpenseForm)
	if !ok {
		t.Fatalf("FormData type = %T, want ExpenseForm", decoded.FormData)
	}
	if !expense.Amount.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("Amount = %s, want 12000", expense.Amount)
	}
	if decoded.Title() != "会食費" || decoded.Category() != CategoryExpense {
		t.Errorf("Title/Category = %q/%q", decoded.Title(), decoded.Category())
	}
}

func TestApprovalRecord_Clone(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	original := &ApprovalRecord{ID: "rec-1", SubmittedAt: &now}

	clone := original.Clone()
	*clone.SubmittedAt = now.Add(time.Hour)

	if !original.SubmittedAt.Equal(now) {
		t.Error("Clone() shares SubmittedAt with the original")
	}
}

func TestAmountOf(t *testing.T) {
	amount := decimal.NewFromInt(420)

	if got, ok := AmountOf(TransportForm{Amount: amount}); !ok || !got.Equal(amount) {
		t.Errorf("AmountOf(transport) = %s, %v", got, ok)
	}
	if _, ok := AmountOf(LeaveForm{}); ok {
		t.Error("AmountOf(leave) should report no amount")
	}
}
