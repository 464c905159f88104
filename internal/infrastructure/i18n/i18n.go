// Package i18n renders user-facing texts in the recipient's language.
// Messages are keyed by their english format string; languages without a
// translation fall back to english.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Fallback is the language used when nothing better matches
const Fallback = "en"

var (
	supported = []language.Tag{language.English, language.Czech}
	matcher   = language.NewMatcher(supported)
	cat       = mustBuild()
)

func mustBuild() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, cs := range czech {
		if err := b.SetString(language.Czech, key, cs); err != nil {
			panic(err)
		}
	}
	return b
}

// Tag returns the best supported tag for a language code such as "cs"
// or "zh-hant"
func Tag(lang string) language.Tag {
	if lang == "" {
		return language.English
	}
	t, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// Printer returns a printer for lang
func Printer(lang string) *message.Printer {
	return message.NewPrinter(Tag(lang), message.Catalog(cat))
}

// Sprintf formats the message key in lang
func Sprintf(lang, key string, args ...any) string {
	return Printer(lang).Sprintf(key, args...)
}

// T translates a plain text without arguments
func T(lang, text string) string {
	return Printer(lang).Sprintf(text)
}

// Translated reports whether lang has its own translations
func Translated(lang string) bool {
	return Tag(lang) != language.English
}
