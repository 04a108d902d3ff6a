package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateTimeLayout is the wire layout of transport date-times
const DateTimeLayout = time.RFC3339

// FormData is the category-specific payload of an approval record.
// The set of implementations is closed: ExpenseForm, TransportForm, LeaveForm, NoCostForm.
type FormData interface {
	// Category returns the category this variant belongs to
	Category() Category

	// Base returns the fields shared by every variant
	Base() BaseForm

	// Payload returns the variant as a raw payload using canonical field names
	Payload() map[string]interface{}

	formData()
}

// BaseForm holds the fields every category carries
type BaseForm struct {
	Title       string `json:"title"`
	ProjectName string `json:"projectName,omitempty"`
	Remarks     string `json:"remarks,omitempty"`
}

// Base returns the shared fields
func (b BaseForm) Base() BaseForm {
	return b
}

func (b BaseForm) payload() map[string]interface{} {
	p := map[string]interface{}{"title": b.Title}
	putOptional(p, "projectName", b.ProjectName)
	putOptional(p, "remarks", b.Remarks)
	return p
}

// ExpenseSubject is the accounting subject of an expense
type ExpenseSubject string

const (
	SubjectEntertainment ExpenseSubject = "接待交際費"
	SubjectMeeting       ExpenseSubject = "会議費"
	SubjectTravel        ExpenseSubject = "旅費交通費"
	SubjectWelfare       ExpenseSubject = "福利厚生費"
	SubjectOther         ExpenseSubject = "その他"
)

// ExpenseSubjects returns the closed set of expense subjects in display order
func ExpenseSubjects() []ExpenseSubject {
	return []ExpenseSubject{SubjectEntertainment, SubjectMeeting, SubjectTravel, SubjectWelfare, SubjectOther}
}

// IsValid returns true if the subject belongs to the closed set
func (s ExpenseSubject) IsValid() bool {
	for _, known := range ExpenseSubjects() {
		if s == known {
			return true
		}
	}
	return false
}

// LeaveType is the span of a leave request
type LeaveType string

const (
	LeaveFullDay LeaveType = "full-day"
	LeaveAmHalf  LeaveType = "am-half"
	LeavePmHalf  LeaveType = "pm-half"
)

var leaveTypeLabels = map[LeaveType]string{
	LeaveFullDay: "全日",
	LeaveAmHalf:  "午前半休",
	LeavePmHalf:  "午後半休",
}

// ParseLeaveType accepts the canonical value or its Japanese label
func ParseLeaveType(s string) (LeaveType, bool) {
	for lt, label := range leaveTypeLabels {
		if s == string(lt) || s == label {
			return lt, true
		}
	}
	return "", false
}

// Label returns the Japanese display name
func (l LeaveType) Label() string {
	if label, ok := leaveTypeLabels[l]; ok {
		return label
	}
	return string(l)
}

// ExpenseForm is the payload of EXP records
type ExpenseForm struct {
	BaseForm
	Subject        ExpenseSubject  `json:"subject"`
	Content        string          `json:"content"`
	RecipientID    string          `json:"recipientId"`
	Amount         decimal.Decimal `json:"amount"`
	BillingDate    Date            `json:"billingDate"`
	PaymentDueDate Date            `json:"paymentDueDate"`
	ReceiptURL     string          `json:"receiptUrl,omitempty"`
}

func (ExpenseForm) formData() {}

// Category implements FormData
func (ExpenseForm) Category() Category { return CategoryExpense }

// Payload implements FormData
func (f ExpenseForm) Payload() map[string]interface{} {
	p := f.BaseForm.payload()
	p["subject"] = string(f.Subject)
	p["content"] = f.Content
	p["recipientId"] = f.RecipientID
	p["amount"] = f.Amount.String()
	p["billingDate"] = f.BillingDate.String()
	p["paymentDueDate"] = f.PaymentDueDate.String()
	putOptional(p, "receiptUrl", f.ReceiptURL)
	return p
}

// TransportForm is the payload of TRP records
type TransportForm struct {
	BaseForm
	Departure   string          `json:"departure"`
	Arrival     string          `json:"arrival"`
	Via         string          `json:"via,omitempty"`
	DateTime    time.Time       `json:"datetime"`
	Amount      decimal.Decimal `json:"amount"`
	RecipientID string          `json:"recipientId"`
	ReceiptURL  string          `json:"receiptUrl,omitempty"`
}

func (TransportForm) formData() {}

// Category implements FormData
func (TransportForm) Category() Category { return CategoryTransport }

// Payload implements FormData
func (f TransportForm) Payload() map[string]interface{} {
	p := f.BaseForm.payload()
	p["departure"] = f.Departure
	p["arrival"] = f.Arrival
	putOptional(p, "via", f.Via)
	if !f.DateTime.IsZero() {
		p["datetime"] = f.DateTime.Format(DateTimeLayout)
	} else {
		p["datetime"] = ""
	}
	p["amount"] = f.Amount.String()
	p["recipientId"] = f.RecipientID
	putOptional(p, "receiptUrl", f.ReceiptURL)
	return p
}

// LeaveForm is the payload of LEV records
type LeaveForm struct {
	BaseForm
	StartDate        Date      `json:"startDate"`
	EndDate          Date      `json:"endDate"`
	LeaveType        LeaveType `json:"leaveType"`
	AlternateContact string    `json:"alternateContact,omitempty"`
	Reason           string    `json:"reason"`
}

func (LeaveForm) formData() {}

// Category implements FormData
func (LeaveForm) Category() Category { return CategoryLeave }

// Payload implements FormData
func (f LeaveForm) Payload() map[string]interface{} {
	p := f.BaseForm.payload()
	p["startDate"] = f.StartDate.String()
	p["endDate"] = f.EndDate.String()
	p["leaveType"] = string(f.LeaveType)
	putOptional(p, "alternateContact", f.AlternateContact)
	p["reason"] = f.Reason
	return p
}

// NoCostForm is the payload of NOC records
type NoCostForm struct {
	BaseForm
	Content        string `json:"content"`
	ApprovalReason string `json:"approvalReason"`
	AttachmentURL  string `json:"attachmentUrl,omitempty"`
}

func (NoCostForm) formData() {}

// Category implements FormData
func (NoCostForm) Category() Category { return CategoryNoCost }

// Payload implements FormData
func (f NoCostForm) Payload() map[string]interface{} {
	p := f.BaseForm.payload()
	p["content"] = f.Content
	p["approvalReason"] = f.ApprovalReason
	putOptional(p, "attachmentUrl", f.AttachmentURL)
	return p
}

// AmountOf returns the monetary amount of forms that carry one
func AmountOf(f FormData) (decimal.Decimal, bool) {
	switch v := f.(type) {
	case ExpenseForm:
		return v.Amount, true
	case TransportForm:
		return v.Amount, true
	case LeaveForm, NoCostForm:
		return decimal.Zero, false
	default:
		return decimal.Zero, false
	}
}

// RecipientOf returns the payment recipient id of forms that reference one
func RecipientOf(f FormData) (string, bool) {
	switch v := f.(type) {
	case ExpenseForm:
		return v.RecipientID, true
	case TransportForm:
		return v.RecipientID, true
	default:
		return "", false
	}
}

func putOptional(p map[string]interface{}, key, value string) {
	if value != "" {
		p[key] = value
	}
}
