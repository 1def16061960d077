// Package currency normalizes scraped price text and converts amounts into
// the configured base currency.
package currency

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"arcognition/models"
)

// DefaultCurrency is assumed when the text carries a bare number with no
// symbol or code. A bare amount could in principle be any currency; treating
// it as the base currency matches the upstream behavior this pipeline feeds
// (results are reported in the base currency) and is a deliberate policy, not
// an inference.
const DefaultCurrency = "EUR"

// symbolCodes maps currency symbols to ISO-4217 codes.
var symbolCodes = map[string]string{
	"$": "USD",
	"£": "GBP",
	"₹": "INR",
	"€": "EUR",
}

// knownCodes is the set of 3-letter codes the parser recognizes. A random
// 3-letter word next to a number must not be read as a currency.
var knownCodes = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "INR": true, "JPY": true,
	"CHF": true, "SEK": true, "NOK": true, "DKK": true, "PLN": true,
	"CZK": true, "HUF": true, "RON": true, "CAD": true, "AUD": true,
	"NZD": true, "CNY": true, "HKD": true, "SGD": true, "KRW": true,
	"RUB": true, "TRY": true, "BRL": true, "MXN": true, "ZAR": true,
}

// priceRE matches a currency symbol or 3-letter code immediately before or
// after a numeric amount. The amount may use ',' or '.' as grouping or
// decimal separators and may contain embedded whitespace.
var priceRE = regexp.MustCompile(`([€$£₹]|\b[A-Za-z]{3}\b)?\s*(\d(?:[\d\s\x{00a0}.,]*\d)?)\s*([€$£₹]|\b[A-Za-z]{3}\b)?`)

// ParsePrice parses loosely-formatted price text into a currency code and a
// decimal amount. It is purely textual: deterministic, no I/O. Returns nil
// when no recognizable numeric+currency pattern exists or the number does not
// parse as a finite non-negative decimal.
func ParsePrice(text string) *models.ParsedPrice {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	for _, m := range priceRE.FindAllStringSubmatch(text, -1) {
		if m[2] == "" {
			continue
		}
		code := resolveCurrency(m[1], m[3])
		amount, err := decimal.NewFromString(normalizeAmount(m[2]))
		if err != nil || amount.IsNegative() {
			continue
		}
		return &models.ParsedPrice{Currency: code, Amount: amount}
	}
	return nil
}

// resolveCurrency picks the currency from the token before or after the
// number, preferring the leading one.
func resolveCurrency(before, after string) string {
	for _, tok := range []string{before, after} {
		if tok == "" {
			continue
		}
		if code, ok := symbolCodes[tok]; ok {
			return code
		}
		upper := strings.ToUpper(tok)
		if knownCodes[upper] {
			return upper
		}
	}
	return DefaultCurrency
}

// normalizeAmount converts locale-specific number formats to a standard
// decimal string: embedded whitespace is stripped, grouping separators are
// removed, and the decimal separator becomes '.'.
func normalizeAmount(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastDot > lastComma {
			// US/UK style: 1,299.99
			s = strings.ReplaceAll(s, ",", "")
		} else {
			// European style: 1.299,99
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case lastComma >= 0:
		// A lone comma followed by one or two digits reads as a decimal
		// separator (19,99 and 1,5); anything else reads as grouping (1,299).
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		// Same disambiguation for dots: 1.299 is European grouping, while
		// 149.00 and 1.234.56 end in a decimal separator (a grouping dot is
		// always followed by three digits).
		if len(s)-lastDot-1 <= 2 {
			s = strings.ReplaceAll(s[:lastDot], ".", "") + "." + s[lastDot+1:]
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}
