package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/domain/schema"
)

// RawPayload is an unvalidated form payload as received from a caller
type RawPayload map[string]interface{}

// Accepted date-time layouts, tried in order. The last two are what
// datetime-local inputs send.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

type mode int

const (
	strict mode = iota
	draft
)

// Validate checks raw against the contract of category and returns the
// normalized form. Failures are *ValidationError; unsupported categories
// fail with schema.ErrUnknownCategory. Unknown payload keys are ignored.
func Validate(category entity.Category, raw RawPayload) (entity.FormData, error) {
	return validate(category, raw, strict)
}

// ValidateDraft checks only that required fields are present and that
// present fields parse. Bounds, closed sets and date ordering are left to
// Validate at submission.
func ValidateDraft(category entity.Category, raw RawPayload) (entity.FormData, error) {
	return validate(category, raw, draft)
}

type values struct {
	text     map[string]string
	decimals map[string]decimal.Decimal
	dates    map[string]entity.Date
	times    map[string]time.Time
}

func validate(category entity.Category, raw RawPayload, m mode) (entity.FormData, error) {
	contract, err := schema.SchemaFor(category)
	if err != nil {
		return nil, err
	}

	v := values{
		text:     make(map[string]string),
		decimals: make(map[string]decimal.Decimal),
		dates:    make(map[string]entity.Date),
		times:    make(map[string]time.Time),
	}
	var errs []FieldError

	for _, field := range contract.Fields {
		value, present := lookup(raw, field)
		if !present {
			if field.Required {
				errs = append(errs, FieldError{Field: field.Name, Code: CodeRequired, Message: "is required"})
			}
			continue
		}
		if fe := parseField(field, value, m, &v); fe != nil {
			errs = append(errs, *fe)
		}
	}

	if m == strict {
		for _, order := range contract.Orders {
			earlier, okE := v.dates[order.Earlier]
			later, okL := v.dates[order.Later]
			if okE && okL && later.Before(earlier) {
				errs = append(errs, FieldError{
					Field:   order.Later,
					Code:    CodeDateOrder,
					Message: fmt.Sprintf("must be on or after %s", order.Earlier),
				})
			}
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return build(category, v), nil
}

// lookup returns the first non-blank value under the field's keys
func lookup(raw RawPayload, field schema.Field) (interface{}, bool) {
	for _, key := range field.Keys() {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return value, true
	}
	return nil, false
}

func parseField(field schema.Field, value interface{}, m mode, v *values) *FieldError {
	invalid := func(msg string) *FieldError {
		return &FieldError{Field: field.Name, Code: CodeInvalid, Message: msg}
	}

	switch field.Type {
	case schema.TypeText, schema.TypeReference:
		s, ok := value.(string)
		if !ok {
			return invalid("must be a string")
		}
		v.text[field.Name] = strings.TrimSpace(s)

	case schema.TypeEnum:
		s, ok := value.(string)
		if !ok {
			return invalid("must be a string")
		}
		s = strings.TrimSpace(s)
		canonical, accepted := field.Accepts(s)
		if !accepted {
			if m == strict {
				return &FieldError{
					Field:   field.Name,
					Code:    CodeNotAllowed,
					Message: fmt.Sprintf("must be one of %s", strings.Join(field.Options, ", ")),
				}
			}
			canonical = s
		}
		v.text[field.Name] = canonical

	case schema.TypeDecimal:
		d, err := toDecimal(value)
		if err != nil {
			return invalid(err.Error())
		}
		if m == strict && field.Positive && !d.IsPositive() {
			return &FieldError{Field: field.Name, Code: CodeOutOfRange, Message: "must be greater than 0"}
		}
		v.decimals[field.Name] = d

	case schema.TypeDate:
		s, ok := value.(string)
		if !ok {
			return invalid("must be a date string")
		}
		d, err := entity.ParseDate(strings.TrimSpace(s))
		if err != nil {
			return invalid("must be a date in YYYY-MM-DD format")
		}
		v.dates[field.Name] = d

	case schema.TypeDateTime:
		s, ok := value.(string)
		if !ok {
			return invalid("must be a date-time string")
		}
		t, err := parseDateTime(strings.TrimSpace(s))
		if err != nil {
			return invalid("must be a date-time such as 2006-01-02T15:04")
		}
		v.times[field.Name] = t

	default:
		return invalid(fmt.Sprintf("unsupported field type %s", field.Type))
	}
	return nil
}

func toDecimal(value interface{}) (decimal.Decimal, error) {
	switch n := value.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, fmt.Errorf("must be a number")
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("must be a number")
		}
		return d, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("must be a finite number")
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		return toDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case decimal.Decimal:
		return n, nil
	default:
		return decimal.Zero, fmt.Errorf("must be a number")
	}
}

func parseDateTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func build(category entity.Category, v values) entity.FormData {
	base := entity.BaseForm{
		Title:       v.text["title"],
		ProjectName: v.text["projectName"],
		Remarks:     v.text["remarks"],
	}

	switch category {
	case entity.CategoryExpense:
		return entity.ExpenseForm{
			BaseForm:       base,
			Subject:        entity.ExpenseSubject(v.text["subject"]),
			Content:        v.text["content"],
			RecipientID:    v.text["recipientId"],
			Amount:         v.decimals["amount"],
			BillingDate:    v.dates["billingDate"],
			PaymentDueDate: v.dates["paymentDueDate"],
			ReceiptURL:     v.text["receiptUrl"],
		}
	case entity.CategoryTransport:
		return entity.TransportForm{
			BaseForm:    base,
			Departure:   v.text["departure"],
			Arrival:     v.text["arrival"],
			Via:         v.text["via"],
			DateTime:    v.times["datetime"],
			Amount:      v.decimals["amount"],
			RecipientID: v.text["recipientId"],
			ReceiptURL:  v.text["receiptUrl"],
		}
	case entity.CategoryLeave:
		return entity.LeaveForm{
			BaseForm:         base,
			StartDate:        v.dates["startDate"],
			EndDate:          v.dates["endDate"],
			LeaveType:        entity.LeaveType(v.text["leaveType"]),
			AlternateContact: v.text["alternateContact"],
			Reason:           v.text["reason"],
		}
	case entity.CategoryNoCost:
		return entity.NoCostForm{
			BaseForm:       base,
			Content:        v.text["content"],
			ApprovalReason: v.text["approvalReason"],
			AttachmentURL:  v.text["attachmentUrl"],
		}
	default:
		// SchemaFor already rejected every other category
		panic(fmt.Sprintf("validation: no form variant for category %s", category))
	}
}
