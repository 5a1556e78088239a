package writer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// Separator joins the fields of an output line. Values are not escaped; the
// parsers strip it from extracted text.
const Separator = ";"

// FormatRecord renders one record as a line without terminator.
func FormatRecord(r models.Record) string {
	return strings.Join(r.Values(), Separator)
}

// Format renders records in order, one line each.
func Format(records []models.Record) []string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, FormatRecord(r))
	}
	return lines
}

// Write writes one newline-terminated line per record to out.
func Write(out io.Writer, records []models.Record) error {
	w := bufio.NewWriter(out)
	for _, line := range Format(records) {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// WriteToFile writes records to path. The data goes to a temporary file in
// the same directory that is renamed over path once complete, so a failed
// write never leaves a truncated output.
func WriteToFile(path string, records []models.Record) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = Write(f, records); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close output file %q: %w", path, err)
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("failed to set output file mode: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
