package models

import (
	"fmt"
	"strings"
)

// BankType identifies the institution whose export layout is parsed.
type BankType string

const (
	BankCSAS BankType = "csas"
	BankKB   BankType = "kb"
	BankEra  BankType = "era"
)

// KnownBanks lists the built-in institutions.
var KnownBanks = []BankType{BankCSAS, BankKB, BankEra}

// ParseBankType normalizes a selector given on the command line.
func ParseBankType(s string) (BankType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csas", "cs":
		return BankCSAS, nil
	case "kb":
		return BankKB, nil
	case "era":
		return BankEra, nil
	default:
		return "", fmt.Errorf("unknown bank %q", s)
	}
}

// Statement holds the result of parsing one export file.
type Statement struct {
	Bank        BankType
	Encoding    string // resolved source encoding
	StartOffset int    // byte offset of the first line after the preamble
	Records     []Record
	Skipped     int // free-text entries that did not match the entry pattern
}
