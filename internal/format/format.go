// Package format parses and renders amounts and dates the way they are typed
// and read in German bookkeeping, e.g. "1.234,56 €" and "15.04.2024".
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a money amount. A comma marks the decimal separator,
// so "1.234,56" and "1234.56" are the same amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "€"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// Money renders an amount with thousands dots and a decimal comma
func Money(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%s%s,%s €", sign, b.String(), frac)
}

// ParseDate parses a calendar date relative to now. Accepts YYYY-MM-DD,
// DD.MM.YYYY, 'today'/'heute' and 'yesterday'/'gestern'. The result is
// midnight UTC of that day.
func ParseDate(s string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "today", "heute":
		return today, nil
	case "yesterday", "gestern":
		return today.AddDate(0, 0, -1), nil
	}

	for _, layout := range []string{"2006-01-02", "02.01.2006", "2.1.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected format: YYYY-MM-DD, DD.MM.YYYY, 'today', or 'yesterday'")
}

// Date renders a calendar date, "-" when absent
func Date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// Truncate shortens s to maxLen runes with an ellipsis
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
