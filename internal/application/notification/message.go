package notification

import (
	"fmt"
	"html/template"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/i18n"
)

// Localized is a message argument that is itself translated, such as an
// ack display name
type Localized string

// Message is a notification text keyed by its english format string.
// It is rendered once per recipient language.
type Message struct {
	Key  string
	Args []any
}

// NewMessage creates a message
func NewMessage(key string, args ...any) Message {
	return Message{Key: key, Args: args}
}

// Render formats the message in lang. The result is HTML, so text
// arguments are escaped; localized arguments come from the catalog as is.
func (m Message) Render(lang string) string {
	args := make([]any, len(m.Args))
	for i, a := range m.Args {
		switch v := a.(type) {
		case Localized:
			args[i] = i18n.T(lang, string(v))
		case string:
			args[i] = template.HTMLEscapeString(v)
		case fmt.Stringer:
			args[i] = template.HTMLEscapeString(v.String())
		default:
			args[i] = a
		}
	}
	return i18n.Sprintf(lang, m.Key, args...)
}
