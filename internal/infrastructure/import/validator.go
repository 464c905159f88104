package csvimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeBool    FieldType = "bool"
)

// DateFormat is the date layout of tracker CSV files
const DateFormat = "2006-01-02"

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column     string
	Type       FieldType
	Required   bool
	MaxLength  int
	CustomFunc func(value string) error
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the column as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int sets the column type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal sets the column type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Date sets the column type to date
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

// Bool sets the column type to boolean
func (b *FieldRuleBuilder) Bool() *FieldRuleBuilder {
	b.rule.Type = TypeBool
	return b
}

// MaxLength sets the maximum length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Custom sets a custom validation function
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator validates rows against field rules
type FieldValidator struct {
	rules  []FieldRule
	errors *ErrorCollection
}

// NewFieldValidator creates a new field validator
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	return &FieldValidator{
		rules:  rules,
		errors: NewErrorCollection(maxErrors),
	}
}

// ValidateRow validates all ruled columns of a row
func (v *FieldValidator) ValidateRow(row *Row) bool {
	valid := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if rule.Required && value == "" {
			v.errors.AddRequiredError(row.LineNumber, rule.Column)
			valid = false
			continue
		}
		if value == "" {
			continue
		}
		if err := validateType(value, rule.Type); err != nil {
			v.errors.AddTypeError(row.LineNumber, rule.Column, string(rule.Type), value)
			valid = false
			continue
		}
		if rule.MaxLength > 0 && len([]rune(value)) > rule.MaxLength {
			v.errors.AddLengthError(row.LineNumber, rule.Column, rule.MaxLength)
			valid = false
		}
		if rule.CustomFunc != nil {
			if err := rule.CustomFunc(value); err != nil {
				v.errors.Add(RowError{
					Row:     row.LineNumber,
					Column:  rule.Column,
					Code:    ErrCodeValidation,
					Message: err.Error(),
					Value:   value,
				})
				valid = false
			}
		}
	}
	return valid
}

// Errors returns the error collection
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}

func validateType(value string, fieldType FieldType) error {
	switch fieldType {
	case TypeInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err
	case TypeDecimal:
		_, err := ParseDecimal(value)
		return err
	case TypeDate:
		_, err := time.Parse(DateFormat, value)
		return err
	case TypeBool:
		if _, ok := parseBool(value); !ok {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
	}
	return nil
}

// ParseBool reads the boolean spellings spreadsheets produce. Empty
// values give def; anything other than a false spelling is true.
func ParseBool(value string, def bool) bool {
	if strings.TrimSpace(value) == "" {
		return def
	}
	b, ok := parseBool(value)
	return !ok || b
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y", "ano":
		return true, true
	case "false", "0", "no", "n", "ne":
		return false, true
	}
	return false, false
}

// ParseDecimal accepts a decimal comma as well as a point
func ParseDecimal(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value), ",", "."))
}
