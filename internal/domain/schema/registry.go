package schema

import (
	"fmt"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

var baseFields = []Field{
	{Name: "title", Type: TypeText, Required: true},
	{Name: "projectName", Type: TypeText, Aliases: []string{"project_name"}},
	{Name: "remarks", Type: TypeText},
}

var contracts = map[entity.Category]FieldContract{
	entity.CategoryExpense: {
		Category: string(entity.CategoryExpense),
		Fields: withBase(
			Field{Name: "subject", Type: TypeEnum, Required: true, Options: expenseSubjectOptions()},
			Field{Name: "content", Type: TypeText, Required: true},
			Field{Name: "recipientId", Type: TypeReference, Required: true, Aliases: []string{"recipient_id"}},
			Field{Name: "amount", Type: TypeDecimal, Required: true, Positive: true},
			Field{Name: "billingDate", Type: TypeDate, Required: true, Aliases: []string{"billing_date"}},
			Field{Name: "paymentDueDate", Type: TypeDate, Required: true, Aliases: []string{"payment_due_date"}},
			Field{Name: "receiptUrl", Type: TypeText, Aliases: []string{"receipt_url"}},
		),
		Orders: []DateOrder{{Earlier: "billingDate", Later: "paymentDueDate"}},
	},
	entity.CategoryTransport: {
		Category: string(entity.CategoryTransport),
		Fields: withBase(
			Field{Name: "departure", Type: TypeText, Required: true},
			Field{Name: "arrival", Type: TypeText, Required: true},
			Field{Name: "via", Type: TypeText},
			Field{Name: "datetime", Type: TypeDateTime, Required: true, Aliases: []string{"date_time"}},
			Field{Name: "amount", Type: TypeDecimal, Required: true, Positive: true},
			Field{Name: "recipientId", Type: TypeReference, Required: true, Aliases: []string{"recipient_id"}},
			Field{Name: "receiptUrl", Type: TypeText, Aliases: []string{"receipt_url"}},
		),
	},
	entity.CategoryLeave: {
		Category: string(entity.CategoryLeave),
		Fields: withBase(
			Field{Name: "startDate", Type: TypeDate, Required: true, Aliases: []string{"start_date"}},
			Field{Name: "endDate", Type: TypeDate, Required: true, Aliases: []string{"end_date"}},
			Field{
				Name:     "leaveType",
				Type:     TypeEnum,
				Required: true,
				Aliases:  []string{"leave_type"},
				Options:  []string{string(entity.LeaveFullDay), string(entity.LeaveAmHalf), string(entity.LeavePmHalf)},
				OptionLabels: map[string]string{
					entity.LeaveFullDay.Label(): string(entity.LeaveFullDay),
					entity.LeaveAmHalf.Label():  string(entity.LeaveAmHalf),
					entity.LeavePmHalf.Label():  string(entity.LeavePmHalf),
				},
			},
			Field{Name: "alternateContact", Type: TypeText, Aliases: []string{"alternate_contact"}},
			Field{Name: "reason", Type: TypeText, Required: true},
		),
		Orders: []DateOrder{{Earlier: "startDate", Later: "endDate"}},
	},
	entity.CategoryNoCost: {
		Category: string(entity.CategoryNoCost),
		Fields: withBase(
			Field{Name: "content", Type: TypeText, Required: true},
			Field{Name: "approvalReason", Type: TypeText, Required: true, Aliases: []string{"approval_reason"}},
			Field{Name: "attachmentUrl", Type: TypeText, Aliases: []string{"attachment_url"}},
		),
	},
}

// SchemaFor returns the field contract of a supported category.
// Reserved and unknown categories fail with ErrUnknownCategory.
func SchemaFor(category entity.Category) (FieldContract, error) {
	contract, ok := contracts[category]
	if !ok {
		if category.IsReserved() {
			return FieldContract{}, fmt.Errorf("%w: %s is reserved and has no form", ErrUnknownCategory, category)
		}
		return FieldContract{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	fields := make([]Field, len(contract.Fields))
	for i, f := range contract.Fields {
		fields[i] = f.clone()
	}
	return FieldContract{
		Category: contract.Category,
		Fields:   fields,
		Orders:   append([]DateOrder(nil), contract.Orders...),
	}, nil
}

// CategoryForCode resolves the category of an active application code
func CategoryForCode(codes []entity.ApplicationCode, codeID string) (entity.Category, error) {
	for _, code := range codes {
		if code.ID == codeID && code.IsActive {
			return code.Category, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownApplicationCode, codeID)
}

func withBase(fields ...Field) []Field {
	all := make([]Field, 0, len(baseFields)+len(fields))
	all = append(all, baseFields...)
	return append(all, fields...)
}

func expenseSubjectOptions() []string {
	subjects := entity.ExpenseSubjects()
	options := make([]string, len(subjects))
	for i, s := range subjects {
		options[i] = string(s)
	}
	return options
}
