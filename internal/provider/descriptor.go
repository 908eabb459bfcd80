package provider

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	// MaxDescriptorLength bounds a whole injected provider string
	MaxDescriptorLength = 200

	// MaxFieldLength bounds each string field of a provider string
	MaxFieldLength = 200
)

// ParseDescriptor parses "domain,priceKey,apiPath,offset".
//
// The offset is a decimal integer and may be followed by ",port". Anything
// else after the offset digits is ignored.
func ParseDescriptor(s string) (Descriptor, error) {
	if s == "" {
		return Descriptor{}, ErrInvalidDescriptor{Input: s, Reason: "empty"}
	}
	if len(s) > MaxDescriptorLength {
		return Descriptor{}, ErrInvalidDescriptor{
			Input:  s,
			Reason: "longer than " + strconv.Itoa(MaxDescriptorLength) + " characters",
		}
	}

	parts := strings.SplitN(s, ",", 4)
	if len(parts) != 4 {
		return Descriptor{}, ErrInvalidDescriptor{Input: s, Reason: "expected domain,priceKey,apiPath,offset"}
	}

	names := [3]string{"domain", "priceKey", "apiPath"}
	for i, name := range names {
		if parts[i] == "" {
			return Descriptor{}, ErrInvalidDescriptor{Input: s, Reason: name + " is empty"}
		}
		if len(parts[i]) > MaxFieldLength {
			return Descriptor{}, ErrInvalidDescriptor{Input: s, Reason: name + " is too long"}
		}
	}

	offset, rest, ok := leadingInt(parts[3])
	if !ok {
		return Descriptor{}, ErrInvalidDescriptor{Input: s, Reason: "offset is not an integer"}
	}
	if offset < 0 {
		return Descriptor{}, ErrInvalidDescriptor{Input: s, Reason: "offset is negative"}
	}

	d := Descriptor{
		Domain:   parts[0],
		PriceKey: parts[1],
		APIPath:  parts[2],
		Offset:   offset,
		Port:     DefaultHTTPPort,
	}

	if strings.HasPrefix(rest, ",") {
		port, _, ok := leadingInt(rest[1:])
		if !ok || port <= 0 || port > 65535 {
			return Descriptor{}, ErrInvalidDescriptor{Input: s, Reason: "invalid port"}
		}
		d.Port = port
	}

	return d, nil
}

// String renders the descriptor in the format ParseDescriptor accepts
func (d Descriptor) String() string {
	s := d.Domain + "," + d.PriceKey + "," + d.APIPath + "," + strconv.Itoa(d.Offset)
	if d.EffectivePort() != DefaultHTTPPort {
		s += "," + strconv.Itoa(d.Port)
	}
	return s
}

// leadingInt reads an optionally signed decimal integer after optional
// leading whitespace and returns the unread remainder.
func leadingInt(s string) (int, string, bool) {
	i := 0
	for i < len(s) && unicode.IsSpace(rune(s[i])) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, s, false
	}

	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}
