package util

import "strings"

// SanitizePostgresText strips NUL bytes and invalid UTF-8 from model
// output before persisting it. Postgres text columns reject NUL even
// inside otherwise valid strings, and rationales come straight from
// the model.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
