package plan

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Code string

const (
	Basic    Code = "basic"
	Standard Code = "standard"
	Premium  Code = "premium"
)

type Plan struct {
	Code          Code            `json:"code"`
	Name          string          `json:"name"`
	PriceMonthly  decimal.Decimal `json:"price_monthly"`
	SocksPerMonth int             `json:"socks_per_month"`
	Features      []string        `json:"features"`
}

// Item is a line-item snapshot embedded into orders.
type Item struct {
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Description string          `json:"description"`
}

var catalog = map[Code]Plan{
	Basic: {
		Code:          Basic,
		Name:          "Basic",
		PriceMonthly:  decimal.RequireFromString("29.90"),
		SocksPerMonth: 2,
		Features:      []string{"2 curated pairs per month", "Free shipping", "Cancel anytime"},
	},
	Standard: {
		Code:          Standard,
		Name:          "Standard",
		PriceMonthly:  decimal.RequireFromString("49.90"),
		SocksPerMonth: 4,
		Features:      []string{"4 curated pairs per month", "Free shipping", "Priority dispatch", "Exclusive styles", "Cancel anytime"},
	},
	Premium: {
		Code:          Premium,
		Name:          "Premium",
		PriceMonthly:  decimal.RequireFromString("79.90"),
		SocksPerMonth: 6,
		Features:      []string{"6 curated pairs per month", "Free shipping", "Priority dispatch", "Exclusive styles", "Quarterly gift box", "Cancel anytime"},
	},
}

// Get looks up a plan by code, case-insensitively.
func Get(code string) (Plan, error) {
	p, ok := catalog[Code(strings.ToLower(code))]
	if !ok {
		return Plan{}, fmt.Errorf("invalid plan code: %s", code)
	}
	return p, nil
}

// List returns the catalog in a stable order.
func List() []Plan {
	return []Plan{catalog[Basic], catalog[Standard], catalog[Premium]}
}

// CalculatePrice returns monthly price x months with the long-term discount
// schedule applied, rounded to 2 decimal places.
func CalculatePrice(code string, months int) (decimal.Decimal, error) {
	p, err := Get(code)
	if err != nil {
		return decimal.Zero, err
	}
	if months < 1 {
		return decimal.Zero, fmt.Errorf("months must be at least 1, got %d", months)
	}

	total := p.PriceMonthly.Mul(decimal.NewFromInt(int64(months)))

	switch {
	case months >= 12:
		total = total.Mul(decimal.RequireFromString("0.85"))
	case months >= 6:
		total = total.Mul(decimal.RequireFromString("0.90"))
	case months >= 3:
		total = total.Mul(decimal.RequireFromString("0.95"))
	}

	return total.Round(2), nil
}

// Items returns the order line items for one month of the given plan.
func Items(code string) ([]Item, error) {
	p, err := Get(code)
	if err != nil {
		return nil, err
	}
	return []Item{{
		Name:        fmt.Sprintf("%s - monthly subscription", p.Name),
		Quantity:    1,
		UnitPrice:   p.PriceMonthly,
		Subtotal:    p.PriceMonthly,
		Description: fmt.Sprintf("%d curated pairs of socks per month", p.SocksPerMonth),
	}}, nil
}
