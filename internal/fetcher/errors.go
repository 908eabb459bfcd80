package fetcher

import (
	"fmt"

	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
)

// ErrNoPriceFound is returned when a response arrived but held no usable price
type ErrNoPriceFound struct {
	Domain   string
	PriceKey string

	// Matched reports whether the key was seen at all
	Matched bool
}

func (e ErrNoPriceFound) Error() string {
	if !e.Matched {
		return fmt.Sprintf("no price found at %s: key %q not in response", e.Domain, e.PriceKey)
	}
	return fmt.Sprintf("no price found at %s: value after key %q is not a positive number", e.Domain, e.PriceKey)
}

// ErrProviderExhausted is returned when every provider of a hop failed in one rotation
type ErrProviderExhausted struct {
	Hop      provider.Hop
	Attempts int

	// Last is the error from the final attempt, nil for an empty list
	Last error
}

func (e ErrProviderExhausted) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("all %s providers failed after %d attempts", e.Hop, e.Attempts)
	}
	return fmt.Sprintf("all %s providers failed after %d attempts, last: %v", e.Hop, e.Attempts, e.Last)
}

func (e ErrProviderExhausted) Unwrap() error { return e.Last }
