package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTemplate(t *testing.T) {
	text := "== Summary ==\n{{Information|a=b}}\n{{Tracker|rok=2020|tiket=1}}\n[[Category:X]]"

	assert.Equal(t, "== Summary ==\n{{Information|a=b}}\n[[Category:X]]", StripTemplate(text, "Tracker"))
	assert.Equal(t, text, StripTemplate(text, "Missing"))
}

func TestTemplateEndPosition(t *testing.T) {
	t.Run("nested templates", func(t *testing.T) {
		text := "x{{Information|date={{Date|2020}}}}rest"

		end := TemplateEndPosition(text, "Information")

		assert.Equal(t, "rest", text[end:])
	})

	t.Run("missing template", func(t *testing.T) {
		assert.Equal(t, -1, TemplateEndPosition("no templates", "Information"))
	})

	t.Run("unterminated template", func(t *testing.T) {
		assert.Equal(t, -1, TemplateEndPosition("{{Information|a=b", "Information"))
	})
}

func TestBuildTemplate(t *testing.T) {
	assert.Equal(t, "{{Tracker|podtéma=Hrady|rok=2023|tiket=42}}", BuildTemplate("Tracker", "Hrady", 2023, 42))
	assert.Equal(t, "{{Tracker|podtéma=|rok=2023|tiket=7}}", BuildTemplate("Tracker", "", 2023, 7))
}

func TestInsertTemplate(t *testing.T) {
	tpl := BuildTemplate("Tracker", "", 2023, 7)

	t.Run("after information template", func(t *testing.T) {
		out, changed := InsertTemplate("{{Information|a=b}}\n[[Category:X]]", "Tracker", tpl, "Information")

		assert.True(t, changed)
		assert.Equal(t, "{{Information|a=b}}\n"+tpl+"\n[[Category:X]]", out)
	})

	t.Run("appends without information template", func(t *testing.T) {
		out, changed := InsertTemplate("plain", "Tracker", tpl, "Information")

		assert.True(t, changed)
		assert.Equal(t, "plain\n"+tpl, out)
	})

	t.Run("replaces old template", func(t *testing.T) {
		out, changed := InsertTemplate("plain\n{{Tracker|rok=2020|tiket=1}}", "Tracker", tpl, "Information")

		assert.True(t, changed)
		assert.Equal(t, "plain\n"+tpl, out)
	})

	t.Run("no change when present", func(t *testing.T) {
		_, changed := InsertTemplate("plain\n"+tpl, "Tracker", tpl, "Information")

		assert.False(t, changed)
	})
}

func TestPhotosPerCategory(t *testing.T) {
	media := []*MediaInfo{
		{Categories: []MediaInfoCategory{{Title: "Castles"}, {Title: "Brno"}}},
		{Categories: []MediaInfoCategory{{Title: "Brno"}}},
	}

	counts := PhotosPerCategory(media)

	require.Len(t, counts, 2)
	assert.Equal(t, CategoryCount{Title: "Brno", Count: 2}, counts[0])
	assert.Equal(t, CategoryCount{Title: "Castles", Count: 1}, counts[1])
}

func TestNewMediaInfo(t *testing.T) {
	_, err := NewMediaInfo(1, "", 0)
	assert.Error(t, err)

	m, err := NewMediaInfo(1, " File:A.jpg ", 0)
	require.NoError(t, err)
	assert.Equal(t, "File:A.jpg", m.PageTitle)
	assert.Equal(t, "https://commons.wikimedia.org/wiki/File:A.jpg", m.MediawikiLink("https://commons.wikimedia.org/wiki/"))
}
