package provider

import (
	"sync"

	"go.uber.org/zap"
)

const (
	defaultCharacterOffset = 3
	unusualCharacterOffset = 2
)

// firstHopDefaults price the base coin in BTC
var firstHopDefaults = []Descriptor{
	{
		Domain:   "data.bter.com",
		PriceKey: "last",
		APIPath:  "/api/1/ticker/yac_btc",
		Offset:   defaultCharacterOffset,
		Port:     DefaultHTTPPort,
	},
	{
		Domain:   "pubapi2.cryptsy.com",
		PriceKey: "lasttradeprice",
		APIPath:  "/api.php?method=singlemarketdata&marketid=11",
		Offset:   defaultCharacterOffset,
		Port:     DefaultHTTPPort,
	},
}

// secondHopDefaults price BTC in the display currency
var secondHopDefaults = []Descriptor{
	{
		Domain:   "btc.blockr.io",
		PriceKey: "value",
		APIPath:  "/api/v1/coin/info",
		Offset:   unusualCharacterOffset,
		Port:     DefaultHTTPPort,
	},
	{
		Domain:   "api.bitcoinvenezuela.com",
		PriceKey: "USD",
		APIPath:  "/",
		Offset:   unusualCharacterOffset,
		Port:     DefaultHTTPPort,
	},
	{
		Domain:   "pubapi2.cryptsy.com",
		PriceKey: "lastdata",
		APIPath:  "/api.php?method=singlemarketdata&marketid=2",
		Offset:   defaultCharacterOffset,
		Port:     DefaultHTTPPort,
	},
}

// DefaultProviders returns a copy of the built-in list for a hop
func DefaultProviders(hop Hop) []Descriptor {
	switch hop {
	case FirstHop:
		return append([]Descriptor(nil), firstHopDefaults...)
	case SecondHop:
		return append([]Descriptor(nil), secondHopDefaults...)
	default:
		return nil
	}
}

// Registry holds the provider list and rotation cursor of both hops.
// Lists are fixed once NewRegistry returns; cursors move as fetches succeed.
type Registry struct {
	mu      sync.Mutex
	lists   map[Hop][]Descriptor
	cursors map[Hop]int
}

// NewRegistry builds both lists from the defaults and prepends at most one
// injected descriptor per hop. A bad descriptor is logged and ignored.
func NewRegistry(firstHopProvider, secondHopProvider string, logger *zap.Logger) *Registry {
	return NewRegistryFrom(
		DefaultProviders(FirstHop), firstHopProvider,
		DefaultProviders(SecondHop), secondHopProvider,
		logger,
	)
}

// NewRegistryFrom is NewRegistry with explicit base lists
func NewRegistryFrom(firstHop []Descriptor, firstHopProvider string, secondHop []Descriptor, secondHopProvider string, logger *zap.Logger) *Registry {
	r := &Registry{
		lists: map[Hop][]Descriptor{
			FirstHop:  append([]Descriptor(nil), firstHop...),
			SecondHop: append([]Descriptor(nil), secondHop...),
		},
		cursors: map[Hop]int{
			FirstHop:  0,
			SecondHop: 0,
		},
	}

	r.inject(FirstHop, firstHopProvider, logger)
	r.inject(SecondHop, secondHopProvider, logger)

	return r
}

func (r *Registry) inject(hop Hop, raw string, logger *zap.Logger) bool {
	if raw == "" {
		return false
	}

	logger.Info("Received provider string",
		zap.String("hop", string(hop)),
		zap.String("provider", raw),
	)

	d, err := ParseDescriptor(raw)
	if err != nil {
		logger.Warn("Ignoring provider string, using built-in providers",
			zap.String("hop", string(hop)),
			zap.Error(err),
		)
		return false
	}

	r.lists[hop] = append([]Descriptor{d}, r.lists[hop]...)
	r.cursors[hop] = 0

	logger.Info("Added provider",
		zap.String("hop", string(hop)),
		zap.String("domain", d.Domain),
		zap.String("priceKey", d.PriceKey),
		zap.String("apiPath", d.APIPath),
		zap.Int("offset", d.Offset),
		zap.Int("port", d.EffectivePort()),
	)
	return true
}

// Providers returns a copy of a hop's list
func (r *Registry) Providers(hop Hop) []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Descriptor(nil), r.lists[hop]...)
}

// Cursor returns a hop's last known good index
func (r *Registry) Cursor(hop Hop) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursors[hop]
}

// SetCursor stores a hop's last known good index
func (r *Registry) SetCursor(hop Hop, cursor int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors[hop] = cursor
}
