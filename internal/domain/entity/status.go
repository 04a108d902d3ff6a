package entity

import "strings"

// Status is the lifecycle status of an approval record
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusReturned  Status = "returned"
)

var validStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusSubmitted: true,
	StatusApproved:  true,
	StatusRejected:  true,
	StatusReturned:  true,
}

var statusLabels = map[Status]string{
	StatusDraft:     "下書き",
	StatusSubmitted: "承認待ち",
	StatusApproved:  "承認済み",
	StatusRejected:  "却下",
	StatusReturned:  "差戻し",
}

// AllStatuses returns every status in lifecycle order
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected, StatusReturned}
}

// IsValid returns true if the status is one of the five lifecycle statuses
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true for statuses that accept no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Label returns the Japanese display name
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ParseLegacyStatus maps both the five-state vocabulary and the older
// pending/approved/rejected one onto Status. "pending" means submitted.
func ParseLegacyStatus(value string) (Status, bool) {
	v := Status(strings.ToLower(strings.TrimSpace(value)))
	if v == "pending" {
		return StatusSubmitted, true
	}
	if v.IsValid() {
		return v, true
	}
	return "", false
}
