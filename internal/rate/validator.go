package rate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// FieldErrors collects per-field validation messages for query handlers.
type FieldErrors map[string]string

func (e FieldErrors) Any() bool { return len(e) > 0 }

// ParseCurrency normalizes and validates a 3-letter currency code.
func ParseCurrency(value string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(value))
	if code == "" {
		return "", fmt.Errorf("currency code is required")
	}
	if !currencyCodeRe.MatchString(code) {
		return "", fmt.Errorf("currency code must be exactly 3 letters")
	}
	return code, nil
}

// ParseAmount validates a non-negative numeric amount.
func ParseAmount(value string) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("amount must be numeric")
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

// ParseDate parses a YYYY-MM-DD day; empty input falls back to def.
func ParseDate(value string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return def, nil
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted YYYY-MM-DD")
	}
	return date, nil
}
