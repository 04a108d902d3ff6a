package entity

import "time"

// ApprovalHistory is one entry of a record's audit trail
type ApprovalHistory struct {
	ID             int64     `json:"id"`
	RecordID       string    `json:"recordId"`
	ActorID        string    `json:"actorId"`
	PreviousStatus Status    `json:"previousStatus,omitempty"`
	NewStatus      Status    `json:"newStatus"`
	ActionType     string    `json:"actionType"`
	Remarks        string    `json:"remarks,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
