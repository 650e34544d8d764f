package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const orderNumberDayLayout = "20060102"

// OrderNumberPrefix returns the "ORD-YYYYMMDD-" prefix for the UTC day of t
func OrderNumberPrefix(t time.Time) string {
	return "ORD-" + t.UTC().Format(orderNumberDayLayout) + "-"
}

// FormatOrderNumber builds ORD-YYYYMMDD-SEQ with a 4-digit, 1-based sequence
func FormatOrderNumber(t time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", OrderNumberPrefix(t), seq)
}

// ParseOrderNumber splits an order number into its UTC day and sequence
func ParseOrderNumber(number string) (time.Time, int, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != "ORD" {
		return time.Time{}, 0, fmt.Errorf("malformed order number %q", number)
	}
	day, err := time.Parse(orderNumberDayLayout, parts[1])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed order number date %q: %w", number, err)
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return time.Time{}, 0, fmt.Errorf("malformed order number sequence %q", number)
	}
	return day, seq, nil
}
