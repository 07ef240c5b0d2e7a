package address

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier is returned for any raw identifier that is not a canonical participant address.
var ErrInvalidIdentifier = errors.New("invalid identifier")

const (
	DefaultMinLen = 3
	DefaultMaxLen = 54
)

// Addr is a validated, canonical participant identifier.
type Addr string

func (a Addr) String() string { return string(a) }

// Validator turns raw identifier strings into canonical addresses.
type Validator interface {
	Validate(raw string) (Addr, error)
}

// Rules is the default Validator. The zero value uses DefaultMinLen/DefaultMaxLen.
type Rules struct {
	MinLen int
	MaxLen int
}

func NewRules(minLen, maxLen int) Rules {
	return Rules{MinLen: minLen, MaxLen: maxLen}
}

func (r Rules) Validate(raw string) (Addr, error) {
	minLen, maxLen := r.bounds()
	if raw == "" {
		return "", invalid("empty")
	}
	if strings.TrimSpace(raw) != raw {
		return "", invalid("surrounding whitespace")
	}
	if len(raw) < minLen {
		return "", invalid(fmt.Sprintf("too short (min %d)", minLen))
	}
	if len(raw) > maxLen {
		return "", invalid(fmt.Sprintf("too long (max %d)", maxLen))
	}
	if strings.ToLower(raw) != raw {
		return "", invalid("not normalized")
	}
	for i := 0; i < len(raw); i++ {
		if !allowed(raw[i]) {
			return "", invalid(fmt.Sprintf("illegal character %q at %d", raw[i], i))
		}
	}
	return Addr(raw), nil
}

func (r Rules) bounds() (int, int) {
	minLen, maxLen := r.MinLen, r.MaxLen
	if minLen <= 0 {
		minLen = DefaultMinLen
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	// the encoded session key stores the host length as uint16
	if maxLen > 0xFFFF {
		maxLen = 0xFFFF
	}
	return minLen, maxLen
}

func allowed(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.':
		return true
	default:
		return false
	}
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidIdentifier, reason)
}
