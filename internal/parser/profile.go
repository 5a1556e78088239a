package parser

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// Strategy selects how records are extracted from an export.
type Strategy string

const (
	// StrategyTabular reads one delimited row per record.
	StrategyTabular Strategy = "tabular"
	// StrategyPattern reassembles free-text entries ended by a sentinel line
	// and matches them against a pattern with named groups.
	StrategyPattern Strategy = "pattern"
)

// czechLegacyEncoding is the code page of exports that are not UTF-8.
const czechLegacyEncoding = "windows-1250"

// NoColumn marks a field the source does not provide.
const NoColumn = -1

// ErrInvalidProfile is returned by Validate for an unusable profile.
var ErrInvalidProfile = errors.New("invalid profile")

// Profile describes the export layout of one institution.
type Profile struct {
	Bank     models.BankType
	Name     string
	Strategy Strategy
	Preamble int    // lines to discard before the data
	Encoding string // fixed source encoding; empty means detect

	// LegacyEncoding is assumed when detection finds input that is not
	// valid UTF-8.
	LegacyEncoding string

	// Tabular strategy. Fields maps a normalized field name to a zero-based
	// column; missing names and NoColumn produce empty values.
	Delimiters []rune
	Fields     map[string]int

	// Pattern strategy. Pattern groups named after normalized fields are
	// extracted; other groups are ignored.
	Pattern    *regexp.Regexp
	Sentinel   *regexp.Regexp
	AppendYear bool // complete "DD.MM." dates with the current year
}

// Validate checks that the profile is usable by its strategy.
func (p Profile) Validate() error {
	if p.Bank == "" {
		return fmt.Errorf("%w: missing bank id", ErrInvalidProfile)
	}
	if p.Preamble < 0 {
		return fmt.Errorf("%w: %s: negative preamble %d", ErrInvalidProfile, p.Bank, p.Preamble)
	}

	switch p.Strategy {
	case StrategyTabular:
		mapped := 0
		for name, idx := range p.Fields {
			if !models.IsField(name) {
				return fmt.Errorf("%w: %s: unknown field %q", ErrInvalidProfile, p.Bank, name)
			}
			if idx < NoColumn {
				return fmt.Errorf("%w: %s: field %q has column %d", ErrInvalidProfile, p.Bank, name, idx)
			}
			if idx != NoColumn {
				mapped++
			}
		}
		if mapped == 0 {
			return fmt.Errorf("%w: %s: no field is mapped to a column", ErrInvalidProfile, p.Bank)
		}
	case StrategyPattern:
		if p.Pattern == nil {
			return fmt.Errorf("%w: %s: missing entry pattern", ErrInvalidProfile, p.Bank)
		}
		if p.Sentinel == nil {
			return fmt.Errorf("%w: %s: missing sentinel pattern", ErrInvalidProfile, p.Bank)
		}
		named := 0
		for _, name := range p.Pattern.SubexpNames() {
			if models.IsField(name) {
				named++
			}
		}
		if named == 0 {
			return fmt.Errorf("%w: %s: pattern has no group named after a field", ErrInvalidProfile, p.Bank)
		}
	default:
		return fmt.Errorf("%w: %s: unknown strategy %q", ErrInvalidProfile, p.Bank, p.Strategy)
	}
	return nil
}

// Česká spořitelna: ";"-separated export, header on the first line.
func csasProfile() Profile {
	return Profile{
		Bank:           models.BankCSAS,
		Name:           "Česká spořitelna",
		LegacyEncoding: czechLegacyEncoding,
		Strategy:       StrategyTabular,
		Delimiters:     []rune{';'},
		Fields: map[string]int{
			models.FieldDate:     1,
			models.FieldPaymode:  NoColumn,
			models.FieldInfo:     11,
			models.FieldPayee:    3,
			models.FieldMemo:     10,
			models.FieldAmount:   2,
			models.FieldCategory: NoColumn,
			models.FieldTags:     NoColumn,
		},
	}
}

// Komerční banka: account summary block of 17 lines before the header.
func kbProfile() Profile {
	return Profile{
		Bank:           models.BankKB,
		Name:           "Komerční banka",
		LegacyEncoding: czechLegacyEncoding,
		Strategy:       StrategyTabular,
		Preamble:       17,
		Delimiters:     []rune{';'},
		Fields: map[string]int{
			models.FieldDate:     0,
			models.FieldPaymode:  NoColumn,
			models.FieldInfo:     13,
			models.FieldPayee:    2,
			models.FieldMemo:     14,
			models.FieldAmount:   4,
			models.FieldCategory: NoColumn,
			models.FieldTags:     NoColumn,
		},
	}
}

// Era entries look like
//
//	05.03. GROCERY STORE 123456 -45,00 1234-5678/0100 note text
//
// wrapped over several lines and closed by a dashed rule. The number after
// the description is the transaction reference.
var (
	eraEntryPattern = regexp.MustCompile(
		`^\s*(?P<date>\d{1,2}\.\d{1,2}\.(?:\d{4})?)\s+(?P<info>.+?)\s+\d+` +
			`\s+(?P<amount>[-+]?\d{1,3}(?:[ .]?\d{3})*,\d{2})` +
			`(?:\s+(?P<payee>(?:\d{1,6}-)?\d{2,10}/\d{4}))?` +
			`(?:\s+(?P<memo>.*?))?\s*$`,
	)
	eraSentinelPattern = regexp.MustCompile(`^\s*-{3,}\s*$`)
)

func eraProfile() Profile {
	return Profile{
		Bank:           models.BankEra,
		Name:           "Era",
		LegacyEncoding: czechLegacyEncoding,
		Strategy:       StrategyPattern,
		Pattern:        eraEntryPattern,
		Sentinel:       eraSentinelPattern,
		AppendYear:     true,
	}
}

// Registry holds the profiles selectable by bank id.
type Registry map[models.BankType]Profile

// DefaultRegistry returns a fresh registry with the built-in profiles.
func DefaultRegistry() Registry {
	return Registry{
		models.BankCSAS: csasProfile(),
		models.BankKB:   kbProfile(),
		models.BankEra:  eraProfile(),
	}
}

// Add validates p and registers it, replacing any profile with the same id.
func (r Registry) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r[p.Bank] = p
	return nil
}

// Lookup returns the profile registered for bank.
func (r Registry) Lookup(bank models.BankType) (Profile, error) {
	p, ok := r[bank]
	if !ok {
		return Profile{}, fmt.Errorf("unsupported bank type: %q", bank)
	}
	return p, nil
}

// Banks returns the registered ids in sorted order.
func (r Registry) Banks() []models.BankType {
	banks := make([]models.BankType, 0, len(r))
	for b := range r {
		banks = append(banks, b)
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i] < banks[j] })
	return banks
}
