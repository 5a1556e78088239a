// Package config collects the run options from command-line flags and an
// optional configuration file, and builds the profile registry.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/insightdelivered/statement-normalizer/internal/charset"
	"github.com/insightdelivered/statement-normalizer/internal/models"
	"github.com/insightdelivered/statement-normalizer/internal/parser"
)

var (
	ErrUnknownBank   = errors.New("unknown bank")
	ErrMissingInput  = errors.New("input file is required")
	ErrMissingOutput = errors.New("output file is required")
)

// Flag names, also used as configuration file keys.
const (
	KeyBank     = "bank"
	KeyInput    = "input"
	KeyOutput   = "output"
	KeyEncoding = "encoding"
	KeyDebug    = "debug"
	KeyConfig   = "config"
	KeyProfiles = "profiles"
)

// EncodingAuto forces detection even when a profile pins an encoding.
const EncodingAuto = "auto"

// Options are the settings of one conversion run.
type Options struct {
	Bank     string
	Input    string
	Output   string
	Encoding string
	Debug    bool
	Config   string
	Profiles []ProfileConfig
}

// ProfileConfig is an institution profile as written in a configuration file.
type ProfileConfig struct {
	Bank           string         `mapstructure:"bank"`
	Name           string         `mapstructure:"name"`
	Strategy       string         `mapstructure:"strategy"`
	Preamble       int            `mapstructure:"preamble"`
	Encoding       string         `mapstructure:"encoding"`
	LegacyEncoding string         `mapstructure:"legacy_encoding"`
	Delimiters     string         `mapstructure:"delimiters"`
	Fields         map[string]int `mapstructure:"fields"`
	Pattern        string         `mapstructure:"pattern"`
	Sentinel       string         `mapstructure:"sentinel"`
	AppendYear     bool           `mapstructure:"append_year"`
}

// RegisterFlags declares the conversion flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(KeyBank, "b", "", "bank: csas, kb, era, or an id from the config file")
	fs.StringP(KeyInput, "i", "", "input file (text export or PDF)")
	fs.StringP(KeyOutput, "o", "", "output file")
	fs.StringP(KeyEncoding, "e", "", `source encoding, e.g. windows-1250; "auto" to detect`)
	fs.BoolP(KeyDebug, "d", false, "output debugging info")
	fs.StringP(KeyConfig, "c", "", "configuration file with extra institution profiles")
}

// Load resolves options from the parsed flags and, when --config is given,
// the configuration file. Flags set on the command line take precedence over
// the file.
func Load(fs *pflag.FlagSet) (*Options, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
	}

	opts := &Options{
		Bank:     v.GetString(KeyBank),
		Input:    v.GetString(KeyInput),
		Output:   v.GetString(KeyOutput),
		Encoding: v.GetString(KeyEncoding),
		Debug:    v.GetBool(KeyDebug),
		Config:   v.GetString(KeyConfig),
	}
	if err := v.UnmarshalKey(KeyProfiles, &opts.Profiles); err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return opts, nil
}

// Registry returns the built-in profiles extended by the configured ones.
func (o *Options) Registry() (parser.Registry, error) {
	reg := parser.DefaultRegistry()
	for i, pc := range o.Profiles {
		p, err := pc.Profile()
		if err != nil {
			return nil, fmt.Errorf("profile %d: %w", i+1, err)
		}
		if err := reg.Add(p); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i+1, err)
		}
	}
	return reg, nil
}

// Validate checks the options against reg before any file is touched and
// returns the selected bank.
func (o *Options) Validate(reg parser.Registry) (models.BankType, error) {
	if strings.TrimSpace(o.Input) == "" {
		return "", ErrMissingInput
	}
	if strings.TrimSpace(o.Output) == "" {
		return "", ErrMissingOutput
	}

	bank, err := models.ParseBankType(o.Bank)
	if err != nil {
		bank = models.BankType(strings.ToLower(strings.TrimSpace(o.Bank)))
	}
	if _, err := reg.Lookup(bank); err != nil {
		return "", fmt.Errorf("%w %q, supported: %s", ErrUnknownBank, o.Bank, joinBanks(reg.Banks()))
	}
	return bank, nil
}

// Resolver returns the encoding resolver requested by --encoding, or nil
// when the profile should decide. Detection keeps the profile's legacy
// encoding.
func (o *Options) Resolver(p parser.Profile) charset.Resolver {
	switch strings.ToLower(strings.TrimSpace(o.Encoding)) {
	case "":
		return nil
	case EncodingAuto:
		return charset.Detector{Legacy: p.LegacyEncoding}
	default:
		return charset.Fixed(strings.TrimSpace(o.Encoding))
	}
}

// Profile compiles the configured profile.
func (c ProfileConfig) Profile() (parser.Profile, error) {
	p := parser.Profile{
		Bank:           models.BankType(strings.ToLower(strings.TrimSpace(c.Bank))),
		Name:           c.Name,
		Strategy:       parser.Strategy(strings.ToLower(c.Strategy)),
		Preamble:       c.Preamble,
		Encoding:       c.Encoding,
		LegacyEncoding: c.LegacyEncoding,
		Delimiters:     []rune(c.Delimiters),
		Fields:         c.Fields,
		AppendYear:     c.AppendYear,
	}
	if p.Name == "" {
		p.Name = string(p.Bank)
	}
	if p.Strategy == "" {
		p.Strategy = parser.StrategyTabular
		if c.Pattern != "" {
			p.Strategy = parser.StrategyPattern
		}
	}

	var err error
	if c.Pattern != "" {
		if p.Pattern, err = regexp.Compile(c.Pattern); err != nil {
			return parser.Profile{}, fmt.Errorf("%s: entry pattern: %w", p.Bank, err)
		}
	}
	if c.Sentinel != "" {
		if p.Sentinel, err = regexp.Compile(c.Sentinel); err != nil {
			return parser.Profile{}, fmt.Errorf("%s: sentinel pattern: %w", p.Bank, err)
		}
	}
	return p, nil
}

func joinBanks(banks []models.BankType) string {
	names := make([]string, len(banks))
	for i, b := range banks {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}
