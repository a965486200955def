// Package money rounds and formats whole-unit currency amounts for display.
// Calculations stay in float64; this package is only used at the edges.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Vietnamese)

// Round rounds to whole currency units, half away from zero.
func Round(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(0)
}

// Format renders an amount with vi-VN digit grouping, e.g. 30.000.000.
func Format(amount float64) string {
	return printer.Sprintf("%d", Round(amount).IntPart())
}

// Percent renders a rate such as 0.015 as "1.5%".
func Percent(rate float64) string {
	return decimal.NewFromFloat(rate).Shift(2).String() + "%"
}

var errGrouping = errors.New("digit groups after a thousands separator must have three digits")

// ParseAmount accepts plain or grouped input ("30000000", "30.000.000",
// "30,000,000", "30 000 000") with an optional fraction ("30.000.000,50",
// "5,200,000.75", "730000.5"). A separator is read as grouping only when every
// group after it has exactly three digits; otherwise a single separator marks
// the fraction and anything else is rejected.
func ParseAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer(" ", "", "_", "", "\u00a0", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, nil
	}
	sign := ""
	if cleaned[0] == '-' || cleaned[0] == '+' {
		sign, cleaned = cleaned[:1], cleaned[1:]
	}

	intPart, fracPart, err := splitAmount(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	normalized := sign + intPart
	if fracPart != "" {
		normalized += "." + fracPart
	}
	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return value.InexactFloat64(), nil
}

func splitAmount(s string) (string, string, error) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot < 0 && lastComma < 0:
		return s, "", nil
	case lastDot >= 0 && lastComma >= 0:
		// the later separator marks the fraction, the other one groups
		mark, group := lastDot, ","
		if lastComma > lastDot {
			mark, group = lastComma, "."
		}
		intPart, err := ungroup(s[:mark], group)
		if err != nil {
			return "", "", err
		}
		return intPart, s[mark+1:], nil
	}

	sep := "."
	if lastComma >= 0 {
		sep = ","
	}
	if intPart, err := ungroup(s, sep); err == nil {
		return intPart, "", nil
	}
	if strings.Count(s, sep) > 1 {
		return "", "", errGrouping
	}
	intPart, fracPart, _ := strings.Cut(s, sep)
	return intPart, fracPart, nil
}

func ungroup(s, sep string) (string, error) {
	groups := strings.Split(s, sep)
	if len(groups) == 1 {
		return s, nil
	}
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return "", errGrouping
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", errGrouping
		}
	}
	return strings.Join(groups, ""), nil
}
