package models

import (
	"fmt"
	"strings"
	"time"
)

type SecurityType string

const (
	TypeStock           SecurityType = "stock"
	TypeFund            SecurityType = "fund"
	TypeIndex           SecurityType = "index"
	TypeFutures         SecurityType = "futures"
	TypeOptions         SecurityType = "options"
	TypeETF             SecurityType = "etf"
	TypeLOF             SecurityType = "lof"
	TypeFJA             SecurityType = "fja"
	TypeFJB             SecurityType = "fjb"
	TypeFJM             SecurityType = "fjm"
	TypeMMF             SecurityType = "mmf"
	TypeOpenFund        SecurityType = "open_fund"
	TypeBondFund        SecurityType = "bond_fund"
	TypeStockFund       SecurityType = "stock_fund"
	TypeQDIIFund        SecurityType = "QDII_fund"
	TypeMoneyMarketFund SecurityType = "money_market_fund"
	TypeMixtureFund     SecurityType = "mixture_fund"
)

var securityTypes = map[SecurityType]struct{}{
	TypeStock: {}, TypeFund: {}, TypeIndex: {}, TypeFutures: {}, TypeOptions: {},
	TypeETF: {}, TypeLOF: {}, TypeFJA: {}, TypeFJB: {}, TypeFJM: {}, TypeMMF: {},
	TypeOpenFund: {}, TypeBondFund: {}, TypeStockFund: {}, TypeQDIIFund: {},
	TypeMoneyMarketFund: {}, TypeMixtureFund: {},
}

// ParseSecurityType accepts any of the registry type tags.
func ParseSecurityType(s string) (SecurityType, error) {
	t := SecurityType(strings.TrimSpace(s))
	if _, ok := securityTypes[t]; !ok {
		return "", fmt.Errorf("%w: security type %q", ErrInvalidArgument, s)
	}
	return t, nil
}

// ParseSecurityTypes parses a list, skipping blanks.
func ParseSecurityTypes(in []string) ([]SecurityType, error) {
	out := make([]SecurityType, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		t, err := ParseSecurityType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Security is one registry entry.
type Security struct {
	Code        string       `json:"code"`
	DisplayName string       `json:"display_name"`
	Name        string       `json:"name"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Type        SecurityType `json:"type"`
	Parent      string       `json:"parent,omitempty"`
}

// ListedOn reports whether day falls in [StartDate, EndDate].
func (s Security) ListedOn(day time.Time) bool {
	k := DayKey(day)
	return k >= DayKey(s.StartDate) && k <= DayKey(s.EndDate)
}

// StatusOn classifies day against the listing interval. A listed day is
// reported as trading; suspensions are decided by the bar data.
func (s Security) StatusOn(day time.Time) BarStatus {
	k := DayKey(day)
	switch {
	case k < DayKey(s.StartDate):
		return StatusNotListed
	case k > DayKey(s.EndDate):
		return StatusDelisted
	default:
		return StatusTrading
	}
}

// SecurityFilter narrows a registry listing. Empty Types means all types.
type SecurityFilter struct {
	Types []SecurityType
}

// Match reports whether t passes the type filter.
func (f SecurityFilter) Match(t SecurityType) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, want := range f.Types {
		if want == t {
			return true
		}
	}
	return false
}
