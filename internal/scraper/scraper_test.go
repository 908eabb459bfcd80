package scraper

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/patteeraL/movra/services/price-fetch-service/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLines implements transport.LineReader over a fixed list of lines
type MockLines struct {
	Lines []string
	Err   error
	Reads int

	ReadLineFunc func(ctx context.Context) (string, error)
}

func (m *MockLines) ReadLine(ctx context.Context) (string, error) {
	m.Reads++
	if m.ReadLineFunc != nil {
		return m.ReadLineFunc(ctx)
	}
	if len(m.Lines) == 0 {
		if m.Err != nil {
			return "", m.Err
		}
		return "", transport.ErrConnectionClosed
	}
	line := m.Lines[0]
	m.Lines = m.Lines[1:]
	return line, nil
}

func TestScrape_KeyWithOffset(t *testing.T) {
	lines := &MockLines{Lines: []string{
		"HTTP/1.1 200 OK\r\n",
		"\r\n",
		`{"return":{"markets":{"YAC":{"lasttradeprice":1.2345,"volume":"10"}}}}` + "\n",
	}}

	res, err := Scrape(context.Background(), lines, `"lasttradeprice"`, 1)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.True(t, res.Parsed)
	assert.Equal(t, 1.2345, res.Price)
}

func TestScrape_QuotedValueAfterKey(t *testing.T) {
	lines := &MockLines{Lines: []string{`"lasttradeprice":"1.2345",` + "\n"}}

	res, err := Scrape(context.Background(), lines, "lasttradeprice", 3)
	require.NoError(t, err)
	assert.True(t, res.Parsed)
	assert.Equal(t, 1.2345, res.Price)
}

func TestScrape_EmptyKeyUsesFirstLine(t *testing.T) {
	lines := &MockLines{Lines: []string{"  42.5 USD\n", "99\n"}}

	res, err := Scrape(context.Background(), lines, "", 0)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 42.5, res.Price)
	assert.Equal(t, "  42.5 USD\n", res.Body)
}

func TestScrape_DrainsRemainingLines(t *testing.T) {
	lines := &MockLines{Lines: []string{"last: 7\n", "tail 1\n", "tail 2\n"}}

	res, err := Scrape(context.Background(), lines, "last", 2)
	require.NoError(t, err)
	assert.Equal(t, 7.0, res.Price)
	assert.Empty(t, lines.Lines)
	// three lines plus the end-of-stream read
	assert.Equal(t, 4, lines.Reads)
	// drained lines are not part of the body
	assert.Equal(t, "last: 7\n", res.Body)
}

func TestScrape_KeyNotFound(t *testing.T) {
	lines := &MockLines{Lines: []string{"HTTP/1.1 404 Not Found\r\n", "\r\n", "nope\n"}}

	res, err := Scrape(context.Background(), lines, "last", 3)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.False(t, res.Parsed)
	assert.Equal(t, "HTTP/1.1 404 Not Found\r\n\r\nnope\n", res.Body)
}

func TestScrape_UnparsableValue(t *testing.T) {
	lines := &MockLines{Lines: []string{`"last":"n/a"` + "\n"}}

	res, err := Scrape(context.Background(), lines, "last", 3)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.False(t, res.Parsed)
}

func TestScrape_OffsetPastEndOfLine(t *testing.T) {
	lines := &MockLines{Lines: []string{"last"}}

	res, err := Scrape(context.Background(), lines, "last", 10)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.False(t, res.Parsed)
}

func TestScrape_EmptyResponse(t *testing.T) {
	lines := &MockLines{}

	res, err := Scrape(context.Background(), lines, "last", 3)
	assert.ErrorIs(t, err, transport.ErrConnectionClosed)
	assert.Empty(t, res.Body)
}

func TestScrape_FatalErrorAfterData(t *testing.T) {
	boom := errors.New("reset")
	lines := &MockLines{Lines: []string{"header\n"}, Err: boom}

	res, err := Scrape(context.Background(), lines, "last", 3)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, "header\n", res.Body)
}

func TestScrape_ShutdownBetweenLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	lines := &MockLines{ReadLineFunc: func(ctx context.Context) (string, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return "header\n", nil
	}}

	_, err := Scrape(ctx, lines, "last", 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.2345,", 1.2345, true},
		{"  615.12}}", 615.12, true},
		{"\t-3.5e2xyz", -350, true},
		{"+.5", 0.5, true},
		{"7.", 7, true},
		{"12e", 12, true},
		{"12e+", 12, true},
		{"1E-3\"", 0.001, true},
		{"0.00000850\"", 0.0000085, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{".", 0, false},
		{"\"1.5\"", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParsePrice(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-12, "input %q", tc.in)
		}
	}
}

func TestParsePrice_Special(t *testing.T) {
	v, ok := ParsePrice("Infinity")
	assert.True(t, ok)
	assert.True(t, math.IsInf(v, 1))

	v, ok = ParsePrice("-inf")
	assert.True(t, ok)
	assert.True(t, math.IsInf(v, -1))

	v, ok = ParsePrice("NaN")
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))
}

func TestParsePrice_OutOfRange(t *testing.T) {
	v, ok := ParsePrice("1e999")
	assert.True(t, ok)
	assert.True(t, math.IsInf(v, 1))
}

func TestParsePrice_HexFloatStopsAtX(t *testing.T) {
	v, ok := ParsePrice("0x1p3")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}
