package scraper

import (
	"context"
	"strings"

	"github.com/patteeraL/movra/services/price-fetch-service/internal/transport"
)

// Result is what one scrape pulled from a response
type Result struct {
	// Price is the parsed value; only meaningful when Parsed is true
	Price float64

	// Parsed reports whether a number was found after the key
	Parsed bool

	// Matched reports whether any line contained the key
	Matched bool

	// Body holds every line read up to and including the matching line
	Body string
}

// Scrape reads lines until one contains key, then parses the number that
// starts offset characters after the key. An empty key matches the first
// line. The rest of the response is drained before returning.
//
// The error is non-nil only when the context ends or the stream fails
// before any line arrives; a missing or unparsable price is reported
// through Result.
func Scrape(ctx context.Context, lines transport.LineReader, key string, offset int) (Result, error) {
	var (
		res  Result
		body strings.Builder
	)

	for {
		line, err := lines.ReadLine(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if err != nil {
			res.Body = body.String()
			if res.Body == "" {
				return res, err
			}
			return res, nil
		}

		body.WriteString(line)

		idx := strings.Index(line, key)
		if idx < 0 {
			continue
		}

		res.Matched = true
		res.Price, res.Parsed = valueAfterKey(line, idx, key, offset)
		res.Body = body.String()

		return res, drain(ctx, lines)
	}
}

// valueAfterKey parses the number at idx+len(key)+offset
func valueAfterKey(line string, idx int, key string, offset int) (float64, bool) {
	if key == "" {
		return ParsePrice(line)
	}

	start := idx + len(key) + offset
	if start < 0 || start > len(line) {
		return 0, false
	}
	return ParsePrice(line[start:])
}

// drain discards the remaining lines so the peer can close cleanly
func drain(ctx context.Context, lines transport.LineReader) error {
	for {
		_, err := lines.ReadLine(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// End of stream, or a broken tail; the price is already in hand
			return nil
		}
	}
}
