package csvimport

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(line int, data map[string]string) *Row {
	return &Row{LineNumber: line, Data: data}
}

func TestFieldValidator_ValidateRow(t *testing.T) {
	rules := []FieldRule{
		Field("ticket_id").Required().Int().Build(),
		Field("description").Required().MaxLength(10).Build(),
		Field("amount").Decimal().Build(),
		Field("event_date").Date().Build(),
		Field("wage").Bool().Build(),
	}

	t.Run("Valid row", func(t *testing.T) {
		v := NewFieldValidator(rules, 10)
		ok := v.ValidateRow(row(2, map[string]string{
			"ticket_id": "5", "description": "Train", "amount": "12,50", "event_date": "2019-05-01", "wage": "False",
		}))

		assert.True(t, ok)
		assert.False(t, v.Errors().HasErrors())
	})

	t.Run("Every broken column is reported", func(t *testing.T) {
		v := NewFieldValidator(rules, 10)
		ok := v.ValidateRow(row(7, map[string]string{
			"ticket_id": "", "description": "far too long text", "amount": "lots", "event_date": "1.5.2019", "wage": "maybe",
		}))

		assert.False(t, ok)
		codes := map[string]string{}
		for _, e := range v.Errors().Errors() {
			assert.Equal(t, 7, e.Row)
			codes[e.Column] = e.Code
		}
		assert.Equal(t, map[string]string{
			"ticket_id":   ErrCodeRequiredField,
			"description": ErrCodeInvalidLength,
			"amount":      ErrCodeInvalidType,
			"event_date":  ErrCodeInvalidType,
			"wage":        ErrCodeInvalidType,
		}, codes)
	})

	t.Run("Custom rule", func(t *testing.T) {
		v := NewFieldValidator([]FieldRule{
			Field("slug").Custom(func(value string) error {
				if value == "taken" {
					return errors.New("slug exists")
				}
				return nil
			}).Build(),
		}, 10)

		assert.True(t, v.ValidateRow(row(2, map[string]string{"slug": "free"})))
		assert.False(t, v.ValidateRow(row(3, map[string]string{"slug": "taken"})))
		assert.Equal(t, "slug exists", v.Errors().Errors()[0].Message)
	})
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("True", false))
	assert.True(t, ParseBool("ano", false))
	assert.False(t, ParseBool("False", true))
	assert.False(t, ParseBool("0", true))
	assert.True(t, ParseBool("", true))
	assert.False(t, ParseBool("  ", false))
	assert.True(t, ParseBool("whatever", false))
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("1234,5")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1234.5")))

	_, err = ParseDecimal("12 CZK")
	assert.Error(t, err)
}
