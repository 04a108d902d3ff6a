package entity

import (
	"encoding/json"
	"time"
)

// ApprovalRecord is a single approval request and its lifecycle stamps
type ApprovalRecord struct {
	ID                string     `json:"id"`
	ApplicantID       string     `json:"applicantId"`
	ApplicationCodeID string     `json:"applicationCodeId"`
	FormData          FormData   `json:"formData"`
	Status            Status     `json:"status"`
	SubmittedAt       *time.Time `json:"submittedAt,omitempty"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
	ApproverID        string     `json:"approverId,omitempty"`
	Remarks           string     `json:"remarks,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Category returns the category of the record's form data
func (r *ApprovalRecord) Category() Category {
	if r.FormData == nil {
		return ""
	}
	return r.FormData.Category()
}

// Title returns the form title
func (r *ApprovalRecord) Title() string {
	if r.FormData == nil {
		return ""
	}
	return r.FormData.Base().Title
}

// Clone returns a copy that shares no mutable state with r
func (r *ApprovalRecord) Clone() *ApprovalRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.SubmittedAt = cloneTime(r.SubmittedAt)
	c.ApprovedAt = cloneTime(r.ApprovedAt)
	return &c
}

type approvalRecordJSON struct {
	ID                string          `json:"id"`
	ApplicantID       string          `json:"applicantId"`
	ApplicationCodeID string          `json:"applicationCodeId"`
	FormData          json.RawMessage `json:"formData"`
	Status            Status          `json:"status"`
	SubmittedAt       *time.Time      `json:"submittedAt,omitempty"`
	ApprovedAt        *time.Time      `json:"approvedAt,omitempty"`
	ApproverID        string          `json:"approverId,omitempty"`
	Remarks           string          `json:"remarks,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// MarshalJSON encodes the form data with its category tag
func (r ApprovalRecord) MarshalJSON() ([]byte, error) {
	form, err := MarshalFormData(r.FormData)
	if err != nil {
		return nil, err
	}
	return json.Marshal(approvalRecordJSON{
		ID:                r.ID,
		ApplicantID:       r.ApplicantID,
		ApplicationCodeID: r.ApplicationCodeID,
		FormData:          form,
		Status:            r.Status,
		SubmittedAt:       r.SubmittedAt,
		ApprovedAt:        r.ApprovedAt,
		ApproverID:        r.ApproverID,
		Remarks:           r.Remarks,
		CreatedAt:         r.CreatedAt,
	})
}

// UnmarshalJSON decodes the category-tagged form data into its variant
func (r *ApprovalRecord) UnmarshalJSON(data []byte) error {
	var raw approvalRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	form, err := UnmarshalFormData(raw.FormData)
	if err != nil {
		return err
	}
	*r = ApprovalRecord{
		ID:                raw.ID,
		ApplicantID:       raw.ApplicantID,
		ApplicationCodeID: raw.ApplicationCodeID,
		FormData:          form,
		Status:            raw.Status,
		SubmittedAt:       raw.SubmittedAt,
		ApprovedAt:        raw.ApprovedAt,
		ApproverID:        raw.ApproverID,
		Remarks:           raw.Remarks,
		CreatedAt:         raw.CreatedAt,
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
