package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DD.MM. without a year, as printed in free-text statements.
var datePatternShort = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.$`)

// appendYear completes a "DD.MM." date with the year of now. Other values are
// returned unchanged.
func appendYear(date string, now time.Time) string {
	if !datePatternShort.MatchString(date) {
		return date
	}
	return fmt.Sprintf("%s%04d", date, now.Year())
}

var valueReplacer = strings.NewReplacer(";", "", "\r\n", " ", "\n", " ", "\r", " ")

// stripDelimiters removes characters that would break the ";"-joined output
// line. Everything else is kept as is.
func stripDelimiters(s string) string {
	return valueReplacer.Replace(s)
}

// sanitizeValue is stripDelimiters plus trimming of surrounding whitespace,
// for values cut out of free text.
func sanitizeValue(s string) string {
	return strings.TrimSpace(stripDelimiters(s))
}

// splitLines splits decoded text into physical lines without terminators.
// A trailing newline does not produce an empty last line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
