package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

var (
	// ErrDialect means no candidate delimiter occurs in the header line.
	ErrDialect = errors.New("could not determine delimiter")
	// ErrRowShape means a row is too short for a mapped column.
	ErrRowShape = errors.New("row is missing a mapped column")
)

var defaultDelimiters = []rune{';'}

// TabularParser handles exports with one delimited row per transaction.
//
// The first line after the preamble is the column header. It is used to
// sniff the delimiter and is not emitted as a record.
type TabularParser struct {
	source
}

// dialect is the sniffed row format.
type dialect struct {
	Comma rune
}

// sniffDialect picks the first candidate delimiter that occurs in line
// outside double quotes. Candidates are tried in order, so the first one is
// preferred when several occur.
func sniffDialect(line string, candidates []rune) (dialect, error) {
	if len(candidates) == 0 {
		candidates = defaultDelimiters
	}

	counts := make(map[rune]int, len(candidates))
	inQuote := false
	for _, r := range line {
		if r == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote {
			counts[r]++
		}
	}

	for _, c := range candidates {
		if counts[c] > 0 {
			return dialect{Comma: c}, nil
		}
	}
	return dialect{}, fmt.Errorf("%w among %q in %q", ErrDialect, string(candidates), line)
}

// Parse reads the export and maps every data row to a record. Quotes inside
// unquoted cells are kept as text.
func (p *TabularParser) Parse(r io.Reader) (*models.Statement, error) {
	st, body, err := p.prepare(r)
	if err != nil {
		return nil, err
	}

	lines := splitLines(body)
	if len(lines) == 0 {
		p.log.Info().Str("bank", string(p.profile.Bank)).Msg("no data after preamble")
		return st, nil
	}

	header := lines[0]
	p.log.Debug().Str("line", header).Msg("sniffing dialect")
	d, err := sniffDialect(header, p.profile.Delimiters)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Str("delimiter", string(d.Comma)).Msg("sniffed dialect")

	reader := csv.NewReader(strings.NewReader(strings.Join(lines[1:], "\n")))
	reader.Comma = d.Comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Source line of the first data row, 1-based.
	firstLine := p.profile.Preamble + 2
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rowError(err, firstLine)
		}

		line, _ := reader.FieldPos(0)
		rec, err := p.record(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", firstLine+line-1, err)
		}
		p.log.Debug().Interface("record", rec).Msg("parsed row")
		st.Records = append(st.Records, rec)
	}

	p.log.Info().Str("bank", string(p.profile.Bank)).Int("records", len(st.Records)).Msg("parsed statement")
	return st, nil
}

func (p *TabularParser) record(row []string) (models.Record, error) {
	values := make(map[string]string, len(models.FieldNames))
	for _, name := range models.FieldNames {
		idx, ok := p.profile.Fields[name]
		if !ok || idx == NoColumn {
			continue
		}
		if idx >= len(row) {
			return models.Record{}, fmt.Errorf("%w: %s is column %d, row has %d fields", ErrRowShape, name, idx, len(row))
		}
		values[name] = stripDelimiters(row[idx])
	}
	return models.NewRecord(values), nil
}

// rowError reports a csv read error against the source line numbering.
// The csv reader counts from the first data row.
func rowError(err error, firstLine int) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("failed to read row: line %d, column %d: %w", firstLine+pe.Line-1, pe.Column, pe.Err)
	}
	return fmt.Errorf("failed to read row: %w", err)
}
