package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-normalizer/internal/charset"
	"github.com/insightdelivered/statement-normalizer/internal/config"
	"github.com/insightdelivered/statement-normalizer/internal/extractor"
	"github.com/insightdelivered/statement-normalizer/internal/logger"
	"github.com/insightdelivered/statement-normalizer/internal/models"
	"github.com/insightdelivered/statement-normalizer/internal/parser"
	"github.com/insightdelivered/statement-normalizer/internal/writer"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statement-normalizer --bank <bank> --input <file> --output <file>",
		Short: "Convert bank account history exports to one normalized format",
		Long: `Converts account history exports of several banks into ";"-separated
lines with the fields

  date;paymode;info;payee;memo;amount;category;tags

Supported banks:
  csas  - Česká spořitelna (";"-separated export)
  kb    - Komerční banka (";"-separated export after a 17 line summary)
  era   - Era (free-text statement, entries separated by dashed lines)

More banks can be described in a configuration file (--config).`,
		Example: `  # Convert a KB export, detecting its encoding
  statement-normalizer --bank kb --input history.csv --output history.txt

  # Convert an Era statement printed to PDF
  statement-normalizer --bank era --input statement.pdf --output era.txt

  # Use extra profiles and a fixed encoding
  statement-normalizer --config banks.yaml --bank fio -e windows-1250 -i fio.csv -o fio.txt`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(opts, logger.New(opts.Debug))
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// run converts opts.Input to opts.Output. Configuration is checked before
// any file is opened and the input is closed before the output is written.
func run(opts *config.Options, log zerolog.Logger) error {
	reg, err := opts.Registry()
	if err != nil {
		return err
	}
	bank, err := opts.Validate(reg)
	if err != nil {
		return err
	}
	profile, err := reg.Lookup(bank)
	if err != nil {
		return err
	}
	log.Debug().Interface("options", opts).Msg("starting conversion")

	st, err := processFile(opts.Input, profile, opts.Resolver(profile), log)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", opts.Input, err)
	}

	if err := writer.WriteToFile(opts.Output, st.Records); err != nil {
		return err
	}

	log.Info().
		Str("bank", string(st.Bank)).
		Str("encoding", st.Encoding).
		Int("records", len(st.Records)).
		Int("skipped", st.Skipped).
		Str("output", opts.Output).
		Msg("conversion done")
	return nil
}

func processFile(path string, profile parser.Profile, resolver charset.Resolver, log zerolog.Logger) (*models.Statement, error) {
	popts := []parser.Option{parser.WithLogger(log), parser.WithResolver(resolver)}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := extractor.ExtractText(path)
		if err != nil {
			return nil, fmt.Errorf("PDF extraction failed: %w", err)
		}
		log.Debug().Int("bytes", len(text)).Msg("extracted PDF text")

		p, err := parser.NewFromProfile(profile, append(popts, parser.WithResolver(charset.Fixed(charset.Fallback)))...)
		if err != nil {
			return nil, err
		}
		return p.Parse(strings.NewReader(text))
	}

	p, err := parser.NewFromProfile(profile, popts...)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return p.Parse(f)
}
