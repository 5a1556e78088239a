// Package extractor pulls the text layer out of PDF statements so that a
// PDF rendition can be parsed like a text export.
package extractor

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable is returned when no extraction strategy yields readable text.
var ErrUnreadable = errors.New("no readable text in PDF")

// ExtractText reads a PDF file and returns its text, one physical line per
// text row, pages separated by newlines. Row-based extraction is tried first
// since it keeps the statement layout; whole-document plain text is the
// fallback.
func ExtractText(filePath string) (string, error) {
	pages, err := extractWithLibrary(filePath)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n") + "\n", nil
}

func extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filePath, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	plain := extractByReaderPlainText(r)
	if isReadableText([]string{plain}) {
		return []string{plain}, nil
	}
	return nil, ErrUnreadable
}

// extractByRow rebuilds lines from the words of each text row.
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// textQuality returns the share of letters, digits, spaces and punctuation in
// the text, between 0 and 1. Fonts without a usable encoding produce control
// and private-use runes that pull it down.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
				unicode.IsPunct(r) || unicode.IsSymbol(r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

// isReadableText requires some text and at least 90% readable runes.
func isReadableText(pages []string) bool {
	return totalTextLen(pages) > 0 && textQuality(pages) >= 0.9
}
