// Package transport speaks just enough HTTP/1.1 over a raw TCP socket to
// request one page and read the answer back line by line.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
	"go.uber.org/zap"
)

// ErrConnectionClosed is returned when the peer closes before a line arrives
var ErrConnectionClosed = errors.New("connection closed")

// ErrNetworkUnavailable is returned when the provider host cannot be resolved
type ErrNetworkUnavailable struct {
	Domain string
	Err    error
}

func (e ErrNetworkUnavailable) Error() string {
	return "network unavailable resolving " + e.Domain + ": " + e.Err.Error()
}

func (e ErrNetworkUnavailable) Unwrap() error { return e.Err }

// ErrConnectFailed is returned when the TCP connect step fails
type ErrConnectFailed struct {
	Address string
	Err     error
}

func (e ErrConnectFailed) Error() string {
	return "could not connect to " + e.Address + ": " + e.Err.Error()
}

func (e ErrConnectFailed) Unwrap() error { return e.Err }

// ErrSendIncomplete reports a short write of the request. It is logged, not returned.
type ErrSendIncomplete struct {
	Sent  int
	Total int
}

func (e ErrSendIncomplete) Error() string {
	return fmt.Sprintf("only sent %d of %d bytes", e.Sent, e.Total)
}

// Conn is an established byte stream to a provider
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Dialer opens a connection to a provider host
type Dialer interface {
	Dial(ctx context.Context, domain string, port int) (Conn, error)
}

// Resolver looks up host addresses
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// NetDialer dials real TCP sockets
type NetDialer struct {
	Resolver Resolver
	Dialer   *net.Dialer
}

// NewNetDialer returns a dialer using the default resolver
func NewNetDialer() *NetDialer {
	return &NetDialer{
		Resolver: net.DefaultResolver,
		Dialer:   &net.Dialer{},
	}
}

// Dial resolves domain and connects to its first address
func (d *NetDialer) Dial(ctx context.Context, domain string, port int) (Conn, error) {
	addrs, err := d.Resolver.LookupHost(ctx, domain)
	if err != nil {
		return nil, ErrNetworkUnavailable{Domain: domain, Err: err}
	}
	if len(addrs) == 0 {
		return nil, ErrNetworkUnavailable{Domain: domain, Err: errors.New("no addresses")}
	}

	address := net.JoinHostPort(addrs[0], strconv.Itoa(port))
	conn, err := d.Dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, ErrConnectFailed{Address: address, Err: err}
	}
	return conn, nil
}

const (
	requestLeadIn   = "GET "
	requestPrologue = " HTTP/1.1\r\n" +
		"Content-Type: text/html\r\n" +
		"Accept: application/json, text/html\r\n" +
		"Host: "
	requestEpilogue = "\r\n" +
		"Connection: close\r\n" +
		"\r\n"
)

// BuildRequest renders the GET request for a provider
func BuildRequest(d provider.Descriptor) string {
	return requestLeadIn + d.APIPath + requestPrologue + d.Domain + requestEpilogue
}

// SendRequest writes the request in a single write. A short write is logged
// and not treated as failure; the response is read regardless.
func SendRequest(w io.Writer, request string, logger *zap.Logger) {
	n, err := w.Write([]byte(request))
	if n != len(request) {
		logger.Warn("send() incomplete",
			zap.Error(ErrSendIncomplete{Sent: n, Total: len(request)}),
			zap.NamedError("cause", err),
		)
	}
}
