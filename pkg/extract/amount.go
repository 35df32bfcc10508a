package extract

import (
	"strconv"
	"strings"
)

// NormalizeAmount converts a matched numeric literal and an optional scale word
// into an integer USD value. The numeral may carry comma or space thousands
// separators and a decimal point. Recognized scales: billion/bn/b, million/mm/m,
// thousand/k, case-insensitive; an empty scale means the value is already in units.
// Returns false if the numeral does not parse.
func NormalizeAmount(num, scale string) (int64, bool) {
	cleaned := strings.ReplaceAll(num, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimSpace(cleaned)

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	switch strings.ToLower(strings.TrimSpace(scale)) {
	case "billion", "bn", "b":
		val *= 1_000_000_000
	case "million", "mm", "m":
		val *= 1_000_000
	case "thousand", "k":
		val *= 1_000
	}

	return int64(val), true
}
