package model

import (
	"strings"
	"time"

	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
	"github.com/shopspring/decimal"
)

// HopPrice is the price of one exchange-rate leg
type HopPrice struct {
	Hop       provider.Hop    `json:"hop"`
	Pair      string          `json:"pair"`
	Price     decimal.Decimal `json:"price"`
	Provider  string          `json:"provider"`
	Cursor    int             `json:"cursor"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Quote is a final price composed from the first and second hop
type Quote struct {
	QuoteID   string          `json:"quoteId"`
	Pair      string          `json:"pair"`
	Price     decimal.Decimal `json:"price"`
	FirstHop  HopPrice        `json:"firstHop"`
	SecondHop HopPrice        `json:"secondHop"`
	FetchedAt time.Time       `json:"fetchedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Expired reports whether the quote is past its expiry at now
func (q *Quote) Expired(now time.Time) bool {
	return !q.ExpiresAt.IsZero() && now.After(q.ExpiresAt)
}

// ProviderList describes one hop's providers and its rotation cursor
type ProviderList struct {
	Hop       provider.Hop          `json:"hop"`
	Pair      string                `json:"pair"`
	Cursor    int                   `json:"cursor"`
	Providers []provider.Descriptor `json:"providers"`
}

// ComposePair joins X/Y and Y/Z into X/Z. Pairs that do not chain are
// joined as X/Z anyway; the labels are informational.
func ComposePair(first, second string) string {
	base, _, _ := strings.Cut(first, "/")
	_, target, ok := strings.Cut(second, "/")
	if !ok {
		target = second
	}
	return base + "/" + target
}
