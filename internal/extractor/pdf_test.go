package extractor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTextQuality(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected float64
	}{
		{"plain", []string{"05.03. NÁKUP 123 -45,00"}, 1},
		{"empty", nil, 0},
		{"half garbage", []string{"ab\x01\x02"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textQuality(tt.pages)
			if got != tt.expected {
				t.Errorf("got %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{"statement text", []string{"Výpis z účtu", "05.03. NÁKUP 123 -45,00\n----"}, true},
		{"blank pages", []string{"", "  \n"}, false},
		{"garbage", []string{"\x00\x01\x02\x03a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadableText(tt.pages); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtractTextErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ExtractText(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}

	notPDF := filepath.Join(dir, "statement.pdf")
	if err := os.WriteFile(notPDF, []byte("05.03. SHOP 1 -1,00\n----\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := ExtractText(notPDF); err == nil {
		t.Error("expected error for a file that is not a PDF")
	}
}
