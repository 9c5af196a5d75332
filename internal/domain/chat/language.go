package chat

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used for unknown or missing language codes.
const DefaultLanguage = "en"

// Language describes a supported locale.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SupportedLanguages mirrors the locales the UI ships.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "हिन्दी"},
	{Code: "kn", Name: "ಕನ್ನಡ"},
	{Code: "ta", Name: "தமிழ்"},
	{Code: "te", Name: "తెలుగు"},
	{Code: "mr", Name: "मराठी"},
}

// NormalizeLanguage reduces a locale tag such as "hi-IN" or "kn_IN" to a
// supported base code, or DefaultLanguage when it is not supported.
func NormalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultLanguage
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return DefaultLanguage
	}
	base, _ := tag.Base()

	for _, lang := range SupportedLanguages {
		if lang.Code == base.String() {
			return lang.Code
		}
	}
	return DefaultLanguage
}
