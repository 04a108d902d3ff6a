package event

// Type identifies the type of domain event
type Type string

const (
	TypeApprovalCreated   Type = "approval.created"
	TypeApprovalSubmitted Type = "approval.submitted"
	TypeApprovalApproved  Type = "approval.approved"
	TypeApprovalRejected  Type = "approval.rejected"
	TypeApprovalReturned  Type = "approval.returned"
	TypeStatusChanged     Type = "approval.status_changed"
	TypeRecipientChanged  Type = "recipient.changed"

	// TypeAny subscribes a handler to every event type
	TypeAny Type = "*"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeApprovalCreated,
		TypeApprovalSubmitted,
		TypeApprovalApproved,
		TypeApprovalRejected,
		TypeApprovalReturned,
		TypeStatusChanged,
		TypeRecipientChanged:
		return true
	default:
		return false
	}
}

// IsDecision reports whether the event closes or returns a request to its applicant
func (t Type) IsDecision() bool {
	return t == TypeApprovalApproved || t == TypeApprovalRejected || t == TypeApprovalReturned
}
