package schema

// FieldType is the value type a payload field must parse to
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeEnum      FieldType = "enum"
	TypeDecimal   FieldType = "decimal"
	TypeDate      FieldType = "date"
	TypeDateTime  FieldType = "datetime"
	TypeReference FieldType = "reference"
)

// Field describes one payload field of a category
type Field struct {
	Name     string
	Type     FieldType
	Required bool

	// Aliases are alternative payload keys accepted on input
	Aliases []string

	// Options is the closed value set of enum fields. OptionLabels maps
	// display labels onto options.
	Options      []string
	OptionLabels map[string]string

	// Positive requires decimal fields to be strictly greater than zero
	Positive bool
}

// Keys returns the canonical name followed by the aliases
func (f Field) Keys() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// Accepts resolves an enum value or label onto its canonical option
func (f Field) Accepts(value string) (string, bool) {
	for _, opt := range f.Options {
		if value == opt {
			return opt, true
		}
	}
	if opt, ok := f.OptionLabels[value]; ok {
		return opt, true
	}
	return "", false
}

func (f Field) clone() Field {
	c := f
	c.Aliases = append([]string(nil), f.Aliases...)
	c.Options = append([]string(nil), f.Options...)
	if f.OptionLabels != nil {
		c.OptionLabels = make(map[string]string, len(f.OptionLabels))
		for k, v := range f.OptionLabels {
			c.OptionLabels[k] = v
		}
	}
	return c
}

// DateOrder requires Later to be on or after Earlier. Violations are
// reported against Later.
type DateOrder struct {
	Earlier string
	Later   string
}

// FieldContract is the field set and cross-field constraints of a category
type FieldContract struct {
	Category string
	Fields   []Field
	Orders   []DateOrder
}

// Required returns the names of required fields in declaration order
func (c FieldContract) Required() []string {
	names := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Optional returns the names of optional fields in declaration order
func (c FieldContract) Optional() []string {
	names := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		if !f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Field looks a field up by canonical name
func (c FieldContract) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
