// Package seed holds the reference data a fresh installation starts with.
// The SQLite migrations insert the same rows.
package seed

import (
	"time"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// Seeded ids referenced by fixtures and demos
const (
	AdminUserID   = "0b6f1c3e-2a51-4d8e-9a41-6c1d2f0e7a01"
	ManagerUserID = "0b6f1c3e-2a51-4d8e-9a41-6c1d2f0e7a02"
	StaffUserID   = "0b6f1c3e-2a51-4d8e-9a41-6c1d2f0e7a03"

	ExpenseCodeID   = "5d2a8e41-7c3b-4f09-b1e6-3a9c0d4e8b01"
	LeaveCodeID     = "5d2a8e41-7c3b-4f09-b1e6-3a9c0d4e8b02"
	NoCostCodeID    = "5d2a8e41-7c3b-4f09-b1e6-3a9c0d4e8b03"
	TransportCodeID = "5d2a8e41-7c3b-4f09-b1e6-3a9c0d4e8b04"

	RismaticRecipientID   = "9e4c7b12-5f60-4a3d-8c2e-1b7d9f3a6c01"
	PicoSystemRecipientID = "9e4c7b12-5f60-4a3d-8c2e-1b7d9f3a6c02"
)

// Users returns the seeded users
func Users(now time.Time) []*entity.User {
	return []*entity.User{
		{ID: AdminUserID, EmployeeID: "E001", Email: "tanaka@example.co.jp", Name: "田中太郎", Role: entity.RoleAdmin, Status: entity.UserStatusActive, CreatedAt: now},
		{ID: ManagerUserID, EmployeeID: "E002", Email: "sato@example.co.jp", Name: "佐藤花子", Role: entity.RoleManager, Status: entity.UserStatusActive, CreatedAt: now},
		{ID: StaffUserID, EmployeeID: "E003", Email: "suzuki@example.co.jp", Name: "鈴木一郎", Role: entity.RoleUser, Status: entity.UserStatusActive, CreatedAt: now},
	}
}

// ApplicationCodes returns the seeded application codes ordered by code
func ApplicationCodes(now time.Time) []*entity.ApplicationCode {
	return []*entity.ApplicationCode{
		{ID: ExpenseCodeID, Code: "EXP001", Name: "経費", Category: entity.CategoryExpense, IsActive: true, Description: "経費精算・支払依頼", CreatedAt: now},
		{ID: LeaveCodeID, Code: "LEV001", Name: "有給休暇", Category: entity.CategoryLeave, IsActive: true, Description: "休暇申請", CreatedAt: now},
		{ID: NoCostCodeID, Code: "NOC001", Name: "金額なし決裁", Category: entity.CategoryNoCost, IsActive: true, Description: "金額を伴わない決裁", CreatedAt: now},
		{ID: TransportCodeID, Code: "TRP001", Name: "交通費", Category: entity.CategoryTransport, IsActive: true, Description: "交通費精算", CreatedAt: now},
	}
}

// Recipients returns the seeded payment recipients
func Recipients(now time.Time) []*entity.PaymentRecipient {
	return []*entity.PaymentRecipient{
		{
			ID:            RismaticRecipientID,
			RecipientName: "東京リスマチック",
			CompanyName:   "東京リスマチック株式会社",
			BankCode:      "0001",
			BankName:      "みずほ銀行",
			BranchCode:    "001",
			BranchName:    "本店",
			AccountType:   "普通",
			AccountNumber: "1234567",
			AccountHolder: "トウキヨウリスマチツク（カ",
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            PicoSystemRecipientID,
			RecipientName: "ピコシステム",
			CompanyName:   "株式会社ピコシステム",
			BankCode:      "0005",
			BankName:      "三菱UFJ銀行",
			BranchCode:    "330",
			BranchName:    "新宿支店",
			AccountType:   "当座",
			AccountNumber: "7654321",
			AccountHolder: "カ）ピコシステム",
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}
