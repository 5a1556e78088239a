package parser

import "strings"

// skipPreamble discards n physical lines from text and returns the rest with
// its byte offset. Running out of lines is not an error: the rest is empty.
func skipPreamble(text string, n int) (string, int) {
	offset := 0
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(text[offset:], '\n')
		if idx < 0 {
			return "", len(text)
		}
		offset += idx + 1
	}
	return text[offset:], offset
}
