// Package code turns ticker spellings into canonical "symbol.EXCHANGE" codes.
package code

import (
	"fmt"
	"strings"

	"PriceQuery/internal/domain/models"
)

const (
	Shenzhen = "XSHE"
	Shanghai = "XSHG"
)

// markers maps every accepted exchange spelling to its canonical suffix.
var markers = map[string]string{
	"SZ":   Shenzhen,
	"XSHE": Shenzhen,
	"SH":   Shanghai,
	"XSHG": Shanghai,
	"CCFX": "CCFX",
	"XSGE": "XSGE",
	"XDCE": "XDCE",
	"XZCE": "XZCE",
	"XINE": "XINE",
}

// fundPrefixes covers the 6-digit codes whose first digit alone does not
// decide the exchange.
var fundPrefixes = map[string]string{
	"11": Shanghai, // convertible bonds
	"50": Shanghai, "51": Shanghai, "52": Shanghai, "56": Shanghai, "58": Shanghai,
	"12": Shenzhen, // convertible bonds
	"15": Shenzhen, "16": Shenzhen, "18": Shenzhen,
}

// futuresProducts maps a futures product symbol to its exchange.
var futuresProducts = map[string]string{
	"IF": "CCFX", "IC": "CCFX", "IH": "CCFX", "IM": "CCFX",
	"T": "CCFX", "TF": "CCFX", "TS": "CCFX", "TL": "CCFX",

	"CU": "XSGE", "AL": "XSGE", "ZN": "XSGE", "PB": "XSGE", "NI": "XSGE", "SN": "XSGE",
	"AU": "XSGE", "AG": "XSGE", "RB": "XSGE", "HC": "XSGE", "RU": "XSGE", "BU": "XSGE",
	"FU": "XSGE", "SP": "XSGE", "SS": "XSGE", "WR": "XSGE", "AO": "XSGE",

	"A": "XDCE", "B": "XDCE", "M": "XDCE", "Y": "XDCE", "P": "XDCE", "C": "XDCE",
	"CS": "XDCE", "JD": "XDCE", "L": "XDCE", "V": "XDCE", "PP": "XDCE", "J": "XDCE",
	"JM": "XDCE", "I": "XDCE", "EG": "XDCE", "EB": "XDCE", "PG": "XDCE", "LH": "XDCE",

	"CF": "XZCE", "SR": "XZCE", "TA": "XZCE", "MA": "XZCE", "FG": "XZCE", "RM": "XZCE",
	"OI": "XZCE", "ZC": "XZCE", "SF": "XZCE", "SM": "XZCE", "AP": "XZCE", "CJ": "XZCE",
	"UR": "XZCE", "SA": "XZCE", "PF": "XZCE", "PK": "XZCE",

	"SC": "XINE", "LU": "XINE", "NR": "XINE", "BC": "XINE",
}

// Normalize parses one code. Accepted spellings: "600000", "SH600000",
// "600000SH", "600000.SH", "600000.XSHG", "IF2401" and "IF2401.CCFX", with
// any casing and surrounding blanks.
func Normalize(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("%w: empty code", models.ErrInvalidCode)
	}

	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return withMarker(raw, s[:i], s[i+1:])
	}

	if len(s) == 8 {
		if ex, ok := stockMarker(s[:2]); ok && isDigits(s[2:]) {
			return s[2:] + "." + ex, nil
		}
		if ex, ok := stockMarker(s[6:]); ok && isDigits(s[:6]) {
			return s[:6] + "." + ex, nil
		}
	}

	if len(s) == 6 && isDigits(s) {
		if ex, ok := inferExchange(s); ok {
			return s + "." + ex, nil
		}
		return "", fmt.Errorf("%w: no exchange rule for %q", models.ErrInvalidCode, raw)
	}

	if product, ok := futuresProduct(s); ok {
		return s + "." + futuresProducts[product], nil
	}
	return "", fmt.Errorf("%w: %q", models.ErrInvalidCode, raw)
}

// FromInt zero-pads n to six digits before normalizing.
func FromInt(n int) (string, error) {
	if n < 0 || n > 999999 {
		return "", fmt.Errorf("%w: %d out of range", models.ErrInvalidCode, n)
	}
	return Normalize(fmt.Sprintf("%06d", n))
}

// NormalizeList normalizes every element, keeping input order.
func NormalizeList(raw []string) ([]string, error) {
	out := make([]string, len(raw))
	for i, r := range raw {
		c, err := Normalize(r)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func withMarker(raw, symbol, marker string) (string, error) {
	ex, ok := markers[marker]
	if !ok {
		return "", fmt.Errorf("%w: unknown exchange in %q", models.ErrInvalidCode, raw)
	}
	if ex == Shenzhen || ex == Shanghai {
		if len(symbol) != 6 || !isDigits(symbol) {
			return "", fmt.Errorf("%w: %q", models.ErrInvalidCode, raw)
		}
		return symbol + "." + ex, nil
	}
	product, ok := futuresProduct(symbol)
	if !ok || futuresProducts[product] != ex {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidCode, raw)
	}
	return symbol + "." + ex, nil
}

func stockMarker(s string) (string, bool) {
	switch s {
	case "SZ":
		return Shenzhen, true
	case "SH":
		return Shanghai, true
	}
	return "", false
}

func inferExchange(digits string) (string, bool) {
	switch digits[0] {
	case '0', '2', '3':
		return Shenzhen, true
	case '6', '9':
		return Shanghai, true
	}
	ex, ok := fundPrefixes[digits[:2]]
	return ex, ok
}

// futuresProduct splits "IF2401" into product "IF" and checks the contract
// month is 3 or 4 digits.
func futuresProduct(s string) (string, bool) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i > 2 {
		return "", false
	}
	rest := s[i:]
	if (len(rest) != 3 && len(rest) != 4) || !isDigits(rest) {
		return "", false
	}
	product := s[:i]
	if _, ok := futuresProducts[product]; !ok {
		return "", false
	}
	return product, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
