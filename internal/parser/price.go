package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var decimalPattern = regexp.MustCompile(`(\d+\.\d+)`)

// ParsePrices reads the current and reference price from a tile's price text.
// Only tokens with a decimal point count: "89 TND" yields no price. The first
// token is the current price and the second, if any, the original one.
func ParsePrices(text, currency string) (newPrice, oldPrice *float64, err error) {
	cleaned := text
	if currency != "" {
		cleaned = strings.ReplaceAll(cleaned, currency, " ")
	}

	tokens := decimalPattern.FindAllString(cleaned, -1)
	values := make([]float64, 0, 2)
	for _, token := range tokens {
		if len(values) == 2 {
			break
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid price token %q: %w", token, err)
		}
		values = append(values, v)
	}

	switch len(values) {
	case 0:
		return nil, nil, fmt.Errorf("%w: could not parse prices from %q", ErrNoPrice, text)
	case 1:
		return &values[0], nil, nil
	default:
		return &values[0], &values[1], nil
	}
}
