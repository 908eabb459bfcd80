package provider

import (
	"net"
	"strconv"
)

// DefaultHTTPPort is used when a descriptor does not name a port
const DefaultHTTPPort = 80

// Hop identifies one of the two exchange-rate legs
type Hop string

const (
	// FirstHop prices the base currency in the intermediate currency (e.g. YAC in BTC)
	FirstHop Hop = "first_hop"

	// SecondHop prices the intermediate currency in the target currency (e.g. BTC in USD)
	SecondHop Hop = "second_hop"
)

// Descriptor describes one external price endpoint.
// Values are never mutated after the registry is built.
type Descriptor struct {
	// Domain is the host name to resolve and connect to
	Domain string `json:"domain"`

	// PriceKey marks where the price appears in a response line.
	// An empty key matches the first line received.
	PriceKey string `json:"priceKey"`

	// APIPath is the request path and query
	APIPath string `json:"apiPath"`

	// Offset is the number of characters between the end of the key and the number
	Offset int `json:"offset"`

	// Port is the TCP port (DefaultHTTPPort when zero)
	Port int `json:"port"`
}

// Name returns a label for logs and metrics
func (d Descriptor) Name() string {
	return d.Domain
}

// EffectivePort returns the port to dial
func (d Descriptor) EffectivePort() int {
	if d.Port <= 0 {
		return DefaultHTTPPort
	}
	return d.Port
}

// Address returns host:port
func (d Descriptor) Address() string {
	return net.JoinHostPort(d.Domain, strconv.Itoa(d.EffectivePort()))
}

// ErrInvalidDescriptor is returned when a provider string cannot be parsed
type ErrInvalidDescriptor struct {
	Input  string
	Reason string
}

func (e ErrInvalidDescriptor) Error() string {
	return "invalid provider descriptor " + strconv.Quote(e.Input) + ": " + e.Reason
}
