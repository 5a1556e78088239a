package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/statement-normalizer/internal/config"
	"github.com/insightdelivered/statement-normalizer/internal/logger"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing input: %v", err)
	}
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRunTabular(t *testing.T) {
	input := writeInput(t, "csas.csv",
		"c0;c1;c2;c3;c4;c5;c6;c7;c8;c9;c10;c11\n"+
			"a0;2023-01-05;-100,00;19-123/0800;a4;a5;a6;a7;a8;a9;memo;PAYMENT\n"+
			"b0;2023-01-06;200,00;;b4;b5;b6;b7;b8;b9;;SALARY\n")
	output := filepath.Join(t.TempDir(), "out.txt")

	opts := &config.Options{Bank: "csas", Input: input, Output: output}
	if err := run(opts, logger.NewWithWriter(io.Discard, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, output)
	want := []string{
		"2023-01-05;;PAYMENT;19-123/0800;memo;-100,00;;",
		"2023-01-06;;SALARY;;;200,00;;",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines: got %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
		if n := strings.Count(lines[i], ";") + 1; n != 8 {
			t.Errorf("line %d: got %d fields, want 8", i, n)
		}
	}
}

func TestRunPattern(t *testing.T) {
	input := writeInput(t, "era.txt",
		"05.03. GROCERY STORE 123456\n-45,00 1234-5678/0100\nnote text\n----\n"+
			"not a transaction\n----\n"+
			"06.03. FEE 9 -10,00\n----\n")
	output := filepath.Join(t.TempDir(), "out.txt")

	var logs bytes.Buffer
	opts := &config.Options{Bank: "era", Input: input, Output: output, Encoding: "utf-8"}
	if err := run(opts, logger.NewWithWriter(&logs, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	year := time.Now().Format("2006")
	lines := readLines(t, output)
	want := []string{
		"05.03." + year + ";;GROCERY STORE;1234-5678/0100;note text;-45,00;;",
		"06.03." + year + ";;FEE;;;-10,00;;",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines: got %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
	if !strings.Contains(logs.String(), `"skipped":1`) {
		t.Errorf("expected skipped count in summary, got: %s", logs.String())
	}
}

func TestRunConfigErrorsBeforeIO(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.txt")

	opts := &config.Options{Bank: "metro", Input: filepath.Join(dir, "missing.csv"), Output: output}
	err := run(opts, logger.NewWithWriter(io.Discard, false))
	if !errors.Is(err, config.ErrUnknownBank) {
		t.Errorf("got %v, want ErrUnknownBank", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("output must not be created on configuration errors")
	}
}

func TestRunFailureLeavesNoOutput(t *testing.T) {
	input := writeInput(t, "kb.csv", strings.Repeat("summary\n", 17)+"no delimiter here\nrow\n")
	output := filepath.Join(t.TempDir(), "out.txt")

	opts := &config.Options{Bank: "kb", Input: input, Output: output}
	if err := run(opts, logger.NewWithWriter(io.Discard, false)); err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("output must not be created when parsing fails")
	}
}

func TestRootCmdFlags(t *testing.T) {
	input := writeInput(t, "kb.csv", strings.Repeat("summary\n", 17))
	output := filepath.Join(t.TempDir(), "out.txt")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--bank", "kb", "--input", input, "--output", output})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty output, got %q", data)
	}
}

func TestRootCmdMissingOutput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--bank", "kb", "--input", "in.csv"})
	if err := cmd.Execute(); !errors.Is(err, config.ErrMissingOutput) {
		t.Errorf("got %v, want ErrMissingOutput", err)
	}
}
