package providers

import "strings"

// languageAliases maps common language names and non-standard codes to the
// ISO 639-1 code provider APIs expect.
var languageAliases = map[string]string{
	"english":    "en",
	"eng":        "en",
	"spanish":    "es",
	"español":    "es",
	"esp":        "es",
	"es-la":      "es",
	"french":     "fr",
	"français":   "fr",
	"fra":        "fr",
	"german":     "de",
	"deutsch":    "de",
	"ger":        "de",
	"portuguese": "pt",
	"português":  "pt",
	"pt-br":      "pt",
	"italian":    "it",
	"italiano":   "it",
	"ita":        "it",
	"russian":    "ru",
	"rus":        "ru",
	"japanese":   "ja",
	"jpn":        "ja",
	"korean":     "ko",
	"kor":        "ko",
	"chinese":    "zh",
	"mandarin":   "zh",
	"chi":        "zh",
	"arabic":     "ar",
	"ara":        "ar",
	"turkish":    "tr",
	"tur":        "tr",
	"dutch":      "nl",
	"polish":     "pl",
	"thai":       "th",
	"vietnamese": "vi",
	"indonesian": "id",
}

// NormalizeLanguage maps a language name or alias to the ISO 639-1 code
// provider APIs expect. Unrecognized values pass through lowercased so
// regional codes like zh-hk keep working.
func NormalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if code, ok := languageAliases[language]; ok {
		return code
	}
	return language
}
