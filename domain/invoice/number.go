package invoice

import (
	"fmt"
	"strconv"
	"strings"
)

const numberPrefix = "INV"

// FormatNumber renders the human-readable invoice number, e.g. INV-2026-00042.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%05d", numberPrefix, year, seq)
}

// YearPrefix is the common prefix of every invoice number issued in year.
func YearPrefix(year int) string {
	return fmt.Sprintf("%s-%d-", numberPrefix, year)
}

// ParseSequence extracts the trailing numeric segment of an invoice number.
func ParseSequence(number string) (int, error) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, fmt.Errorf("malformed invoice number %q", number)
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("malformed invoice number %q", number)
	}
	return seq, nil
}
