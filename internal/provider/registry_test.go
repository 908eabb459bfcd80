package provider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRegistry_DefaultsOnly(t *testing.T) {
	r := NewRegistry("", "", zap.NewNop())

	assert.Equal(t, DefaultProviders(FirstHop), r.Providers(FirstHop))
	assert.Equal(t, DefaultProviders(SecondHop), r.Providers(SecondHop))
	assert.Equal(t, 0, r.Cursor(FirstHop))
	assert.Equal(t, 0, r.Cursor(SecondHop))
}

func TestNewRegistry_InjectedProviderIsPrepended(t *testing.T) {
	r := NewRegistry("example.com,price,/api,2", "", zap.NewNop())

	first := r.Providers(FirstHop)
	require.Len(t, first, len(DefaultProviders(FirstHop))+1)
	assert.Equal(t, Descriptor{
		Domain:   "example.com",
		PriceKey: "price",
		APIPath:  "/api",
		Offset:   2,
		Port:     DefaultHTTPPort,
	}, first[0])
	assert.Equal(t, DefaultProviders(FirstHop), first[1:])
	assert.Equal(t, 0, r.Cursor(FirstHop))

	// The other hop is untouched
	assert.Equal(t, DefaultProviders(SecondHop), r.Providers(SecondHop))
}

func TestNewRegistryFrom_InjectionResetsCursor(t *testing.T) {
	base := []Descriptor{{Domain: "a"}, {Domain: "b"}}
	r := NewRegistryFrom(base, "", base, "", zap.NewNop())
	r.SetCursor(FirstHop, 1)
	r.SetCursor(SecondHop, 1)

	r.inject(SecondHop, "c.example,key,/p,1", zap.NewNop())

	assert.Equal(t, 1, r.Cursor(FirstHop))
	assert.Equal(t, 0, r.Cursor(SecondHop))
	assert.Equal(t, "c.example", r.Providers(SecondHop)[0].Domain)
}

func TestNewRegistry_OverlongProviderRejected(t *testing.T) {
	long := "example.com,price,/" + strings.Repeat("x", 250) + ",2"
	r := NewRegistry(long, long, zap.NewNop())

	assert.Equal(t, DefaultProviders(FirstHop), r.Providers(FirstHop))
	assert.Equal(t, DefaultProviders(SecondHop), r.Providers(SecondHop))
}

func TestNewRegistry_MalformedProviderIgnored(t *testing.T) {
	r := NewRegistry("not a provider", "host,key,/path,notanumber", zap.NewNop())

	assert.Equal(t, DefaultProviders(FirstHop), r.Providers(FirstHop))
	assert.Equal(t, DefaultProviders(SecondHop), r.Providers(SecondHop))
}

func TestRegistry_ProvidersReturnsCopy(t *testing.T) {
	r := NewRegistry("", "", zap.NewNop())

	list := r.Providers(FirstHop)
	list[0].Domain = "mutated"

	assert.NotEqual(t, "mutated", r.Providers(FirstHop)[0].Domain)
}

func TestDefaultProviders_UnknownHop(t *testing.T) {
	assert.Nil(t, DefaultProviders(Hop("third_hop")))
}
