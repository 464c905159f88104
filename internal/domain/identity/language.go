package identity

// Language is an interface/email language offered to users
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultEmailLanguage is used for new preferences
const DefaultEmailLanguage = "cs"

var languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "cs", Name: "Czech"},
	{Code: "fr", Name: "French"},
	{Code: "ar", Name: "Arabic"},
	{Code: "da", Name: "Danish"},
	{Code: "fi", Name: "Finnish"},
	{Code: "ko", Name: "Korean"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "sv", Name: "Swedish"},
	{Code: "zh-hant", Name: "Traditional Chinese"},
	{Code: "es", Name: "Spanish"},
}

// Languages returns the supported languages
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// IsSupportedLanguage reports whether code is one of Languages()
func IsSupportedLanguage(code string) bool {
	for _, l := range languages {
		if l.Code == code {
			return true
		}
	}
	return false
}
