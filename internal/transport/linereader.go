package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultRetryPause is the pause after a transient receive condition
const DefaultRetryPause = 10 * time.Millisecond

// LineReader yields a response one newline-terminated line at a time.
// The returned line keeps its trailing newline; the last line of a stream
// may lack one.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

type lineReader struct {
	src    io.ByteReader
	policy backoff.BackOff
}

// NewLineReader wraps a byte stream. policy paces retries after transient
// errors; nil means a constant DefaultRetryPause.
func NewLineReader(r io.Reader, policy backoff.BackOff) LineReader {
	if policy == nil {
		policy = backoff.NewConstantBackOff(DefaultRetryPause)
	}

	src, ok := r.(io.ByteReader)
	if !ok {
		src = bufio.NewReader(r)
	}

	return &lineReader{src: src, policy: policy}
}

type recvAction int

const (
	recvFail recvAction = iota
	recvRetry
	recvRetryAfterPause
)

// classify sorts receive errors into the ones worth trying again
func classify(err error) recvAction {
	switch {
	case errors.Is(err, syscall.EMSGSIZE):
		return recvRetry
	case errors.Is(err, syscall.EAGAIN),
		errors.Is(err, syscall.EWOULDBLOCK),
		errors.Is(err, syscall.EINTR),
		errors.Is(err, syscall.EINPROGRESS):
		return recvRetryAfterPause
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return recvRetryAfterPause
	}
	return recvFail
}

func (r *lineReader) ReadLine(ctx context.Context) (string, error) {
	var line []byte
	r.policy.Reset()

	for {
		c, err := r.src.ReadByte()
		if err == nil {
			line = append(line, c)
			if c == '\n' {
				return string(line), nil
			}
			continue
		}

		switch classify(err) {
		case recvRetry:
			continue
		case recvRetryAfterPause:
			if err := r.pause(ctx); err != nil {
				return "", err
			}
			continue
		}

		// A partial line is a soft end of line
		if len(line) > 0 {
			return string(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrConnectionClosed
		}
		return "", fmt.Errorf("recv failed: %w", err)
	}
}

func (r *lineReader) pause(ctx context.Context) error {
	d := r.policy.NextBackOff()
	if d == backoff.Stop {
		return errors.New("recv failed: gave up after transient errors")
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
