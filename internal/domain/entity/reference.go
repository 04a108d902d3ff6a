package entity

import "time"

// ApplicationCode classifies approval requests into a category
type ApplicationCode struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	IsActive    bool      `json:"isActive"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PaymentRecipient is a payee referenced by expense and transport forms
type PaymentRecipient struct {
	ID            string    `json:"id"`
	RecipientName string    `json:"recipientName"`
	CompanyName   string    `json:"companyName"`
	BankCode      string    `json:"bankCode"`
	BankName      string    `json:"bankName"`
	BranchCode    string    `json:"branchCode"`
	BranchName    string    `json:"branchName"`
	AccountType   string    `json:"accountType"`
	AccountNumber string    `json:"accountNumber"`
	AccountHolder string    `json:"accountHolder"`
	NameReading   string    `json:"nameReading,omitempty"`
	Address       string    `json:"address,omitempty"`
	ContactPerson string    `json:"contactPerson,omitempty"`
	Email         string    `json:"email,omitempty"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UserRole values
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// UserStatus values
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User is an applicant or approver
type User struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	LarkOpenID string    `json:"larkOpenId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CanApprove returns true for roles allowed to decide on submitted records
func (u *User) CanApprove() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
