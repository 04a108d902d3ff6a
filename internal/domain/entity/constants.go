package entity

// Action types recorded in ApprovalHistory
const (
	ActionCreateDraft = "CREATE_DRAFT"
	ActionSubmit      = "SUBMIT"
	ActionApprove     = "APPROVE"
	ActionReject      = "REJECT"
	ActionReturn      = "RETURN"
)
