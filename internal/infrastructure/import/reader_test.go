package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var grantRules = []FieldRule{
	Field("full_name").Required().MaxLength(80).Build(),
	Field("short_name").Required().MaxLength(16).Build(),
	Field("slug").Required().Build(),
	Field("description").Build(),
}

func TestRead(t *testing.T) {
	t.Run("Splits valid rows and errors", func(t *testing.T) {
		csv := "full_name;short_name;slug;description\n" +
			"Wikimedia grant;WG;wg;First\n" +
			";XX;xx;missing name\n" +
			";;;\n" +
			"Second grant;SG;sg;\n"

		result, err := Read(strings.NewReader(csv), ReadOptions{Rules: grantRules})
		require.NoError(t, err)

		require.Len(t, result.Rows, 2)
		assert.Equal(t, "wg", result.Rows[0].Get("slug"))
		assert.Equal(t, 5, result.Rows[1].LineNumber)
		assert.Equal(t, 1, result.Errors.TotalCount())
		assert.Equal(t, 3, result.Errors.Errors()[0].Row)
		assert.False(t, result.Truncated)
	})

	t.Run("Stops at the row limit", func(t *testing.T) {
		csv := "full_name;short_name;slug\nA;A;a\nB;B;b\nC;C;c\n"

		result, err := Read(strings.NewReader(csv), ReadOptions{Rules: grantRules, Limit: 2})
		require.NoError(t, err)

		assert.Len(t, result.Rows, 2)
		assert.True(t, result.Truncated)
	})

	t.Run("Missing required column fails the file", func(t *testing.T) {
		_, err := Read(strings.NewReader("full_name;slug\nA;a\n"), ReadOptions{Rules: grantRules})

		var missing *MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"short_name"}, missing.Columns)
	})

	t.Run("Empty file", func(t *testing.T) {
		_, err := Read(strings.NewReader(""), ReadOptions{})
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}
