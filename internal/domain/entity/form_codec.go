package entity

import (
	"encoding/json"
	"fmt"
)

// MarshalFormData encodes a form as a JSON object tagged with its category
func MarshalFormData(f FormData) ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}

	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal form data: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("marshal form data: %w", err)
	}

	tag, err := json.Marshal(f.Category())
	if err != nil {
		return nil, err
	}
	fields["category"] = tag

	return json.Marshal(fields)
}

// UnmarshalFormData decodes a category-tagged JSON object into its variant
func UnmarshalFormData(data []byte) (FormData, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var head struct {
		Category Category `json:"category"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("unmarshal form data: %w", err)
	}

	switch head.Category {
	case CategoryExpense:
		var f ExpenseForm
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("unmarshal expense form: %w", err)
		}
		return f, nil
	case CategoryTransport:
		var f TransportForm
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("unmarshal transport form: %w", err)
		}
		return f, nil
	case CategoryLeave:
		var f LeaveForm
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("unmarshal leave form: %w", err)
		}
		return f, nil
	case CategoryNoCost:
		var f NoCostForm
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("unmarshal no-cost form: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unmarshal form data: unsupported category %q", head.Category)
	}
}
