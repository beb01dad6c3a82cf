// Package sanitize cleans keys and values pasted from spreadsheets and
// editors: invisible Unicode characters (including the UTF-8 BOM that
// Excel puts at the start of CSV files) are removed and surrounding
// whitespace is trimmed.
package sanitize

import "strings"

var invisible = strings.NewReplacer(
	"\u200B", "", // Zero-width space
	"\u200C", "", // Zero-width non-joiner
	"\u200D", "", // Zero-width joiner
	"\uFEFF", "", // Zero-width no-break space (BOM)
	"\u00AD", "", // Soft hyphen
	"\u2060", "", // Word joiner
	"\u180E", "", // Mongolian vowel separator
)

// Field removes invisible characters and trims whitespace, including CR
// left behind by CRLF line endings.
func Field(field string) string {
	if field == "" {
		return field
	}
	return strings.TrimSpace(invisible.Replace(field))
}

// Key is Field for parameter names, with internal whitespace removed.
func Key(key string) string {
	return strings.Join(strings.Fields(Field(key)), "")
}
