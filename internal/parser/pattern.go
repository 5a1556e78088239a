package parser

import (
	"io"
	"strings"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// PatternParser handles free-text exports where one transaction wraps over
// several lines and is closed by a sentinel line. The lines of an entry are
// joined with spaces and matched against the profile pattern as a whole.
type PatternParser struct {
	source
}

// Parse reassembles the entries of the export and extracts one record per
// matching entry.
func (p *PatternParser) Parse(r io.Reader) (*models.Statement, error) {
	st, body, err := p.prepare(r)
	if err != nil {
		return nil, err
	}

	var entry strings.Builder
	for n, line := range splitLines(body) {
		if p.profile.Sentinel.MatchString(line) {
			if entry.Len() > 0 {
				p.extract(st, entry.String(), p.profile.Preamble+n+1)
			}
			entry.Reset()
			continue
		}
		if text := strings.TrimSpace(line); text != "" {
			entry.WriteByte(' ')
			entry.WriteString(text)
		}
	}
	if entry.Len() > 0 {
		p.log.Debug().Str("entry", entry.String()).Msg("discarding entry without closing sentinel")
	}

	p.log.Info().
		Str("bank", string(p.profile.Bank)).
		Int("records", len(st.Records)).
		Int("skipped", st.Skipped).
		Msg("parsed statement")
	return st, nil
}

// extract matches one reassembled entry and appends the record. An entry that
// does not match is logged and counted, never fatal.
func (p *PatternParser) extract(st *models.Statement, entry string, sentinelLine int) {
	m := p.profile.Pattern.FindStringSubmatch(entry)
	if m == nil {
		p.log.Warn().Int("line", sentinelLine).Str("entry", entry).Msg("entry does not match pattern, skipping")
		st.Skipped++
		return
	}

	values := make(map[string]string, len(models.FieldNames))
	for _, name := range models.FieldNames {
		idx := p.profile.Pattern.SubexpIndex(name)
		if idx < 0 {
			continue
		}
		v := sanitizeValue(m[idx])
		if name == models.FieldDate && p.profile.AppendYear {
			v = appendYear(v, p.now())
		}
		values[name] = v
	}

	rec := models.NewRecord(values)
	p.log.Debug().Interface("record", rec).Msg("parsed entry")
	st.Records = append(st.Records, rec)
}
