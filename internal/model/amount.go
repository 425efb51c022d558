package model

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	amountNoise  = regexp.MustCompile(`[^0-9.\-]`)
	amountPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// ParseAmount turns feed currency text such as "$1,234.56" into a number.
// Everything except digits, '.' and '-' is dropped and the longest leading
// number is parsed. Empty or unparsable input yields zero.
func ParseAmount(s string) decimal.Decimal {
	cleaned := amountNoise.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero
	}

	numeric := amountPrefix.FindString(cleaned)
	if numeric == "" {
		return decimal.Zero
	}

	numeric = strings.TrimSuffix(numeric, ".")
	if strings.HasPrefix(numeric, "-.") {
		numeric = "-0" + numeric[1:]
	} else if strings.HasPrefix(numeric, ".") {
		numeric = "0" + numeric
	}

	d, err := decimal.NewFromString(numeric)
	if err != nil {
		return decimal.Zero
	}
	return d
}
