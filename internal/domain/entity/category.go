package entity

// Category classifies an application code and selects the form variant a record carries
type Category string

const (
	CategoryExpense   Category = "EXP"
	CategoryTransport Category = "TRP"
	CategoryLeave     Category = "LEV"
	CategoryNoCost    Category = "NOC"

	// Reserved codes. Application codes may carry them but no form exists.
	CategoryApproval Category = "APP"
	CategoryAbsence  Category = "ABS"
)

var supportedCategories = map[Category]bool{
	CategoryExpense:   true,
	CategoryTransport: true,
	CategoryLeave:     true,
	CategoryNoCost:    true,
}

var reservedCategories = map[Category]bool{
	CategoryApproval: true,
	CategoryAbsence:  true,
}

var categoryLabels = map[Category]string{
	CategoryExpense:   "経費",
	CategoryTransport: "交通費",
	CategoryLeave:     "休暇",
	CategoryNoCost:    "金額なし決裁",
	CategoryApproval:  "決裁",
	CategoryAbsence:   "欠勤",
}

// SupportedCategories returns the categories that have a form variant, in display order
func SupportedCategories() []Category {
	return []Category{CategoryExpense, CategoryTransport, CategoryLeave, CategoryNoCost}
}

// IsSupported returns true if records can be created for the category
func (c Category) IsSupported() bool {
	return supportedCategories[c]
}

// IsReserved returns true for enumerated categories without a form variant
func (c Category) IsReserved() bool {
	return reservedCategories[c]
}

// IsKnown returns true if the category is supported or reserved
func (c Category) IsKnown() bool {
	return c.IsSupported() || c.IsReserved()
}

// Label returns the Japanese display name
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}
