package parser

import (
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-normalizer/internal/charset"
	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// Parser turns one export file into normalized records.
type Parser interface {
	// Parse reads the whole export from r and returns the parsed statement.
	Parse(r io.Reader) (*models.Statement, error)
	// BankName returns the human-readable institution name.
	BankName() string
}

// Option customizes a parser.
type Option func(*source)

// WithResolver replaces the encoding resolver chosen from the profile.
func WithResolver(r charset.Resolver) Option {
	return func(s *source) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *source) {
		s.log = log
	}
}

// WithClock sets the time source used to complete dates that lack a year.
func WithClock(now func() time.Time) Option {
	return func(s *source) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns the parser for one of the built-in institutions.
func New(bank models.BankType, opts ...Option) (Parser, error) {
	p, err := DefaultRegistry().Lookup(bank)
	if err != nil {
		return nil, err
	}
	return NewFromProfile(p, opts...)
}

// NewFromProfile returns a parser driven by the given profile. The profile is
// copied, so later changes to it do not affect the parser.
func NewFromProfile(p Profile, opts ...Option) (Parser, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Fields = maps.Clone(p.Fields)
	p.Delimiters = append([]rune(nil), p.Delimiters...)

	s := source{
		profile: p,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	if p.Encoding != "" {
		s.resolver = charset.Fixed(p.Encoding)
	} else {
		s.resolver = charset.Detector{Legacy: p.LegacyEncoding}
	}
	for _, opt := range opts {
		opt(&s)
	}

	switch p.Strategy {
	case StrategyTabular:
		return &TabularParser{source: s}, nil
	case StrategyPattern:
		return &PatternParser{source: s}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported strategy %q", ErrInvalidProfile, p.Strategy)
	}
}

// source holds the state shared by both extraction strategies.
type source struct {
	profile  Profile
	resolver charset.Resolver
	log      zerolog.Logger
	now      func() time.Time
}

func (s *source) BankName() string {
	return s.profile.Name
}

// prepare reads and decodes the input and skips the profile's preamble. It
// returns the statement to fill and the decoded text after the preamble.
func (s *source) prepare(r io.Reader) (*models.Statement, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input: %w", err)
	}

	enc, err := s.resolver.Resolve(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve encoding: %w", err)
	}
	s.log.Debug().Str("encoding", enc).Msg("resolved source encoding")

	text, err := charset.Decode(data, enc)
	if err != nil {
		return nil, "", err
	}

	body, offset := skipPreamble(text, s.profile.Preamble)
	s.log.Debug().Int("preamble", s.profile.Preamble).Int("start_position", offset).Msg("skipped preamble")

	st := &models.Statement{
		Bank:        s.profile.Bank,
		Encoding:    enc,
		StartOffset: offset,
		Records:     []models.Record{},
	}
	return st, body, nil
}
