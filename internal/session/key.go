package session

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/park285/Cheese-RPS-bot/internal/address"
)

var ErrMalformedKey = errors.New("malformed session key")

// Key identifies a session by its ordered (host, opponent) pair. (A,B) and (B,A) are different keys.
type Key struct {
	Host     address.Addr
	Opponent address.Addr
}

func (k Key) String() string { return fmt.Sprintf("%s/%s", k.Host, k.Opponent) }

// Encode lays the key out as uint16 big-endian len(host) ‖ host ‖ opponent.
// The length header makes every host's keys a contiguous range that no other host shares.
func (k Key) Encode() []byte {
	out := HostPrefix(k.Host)
	return append(out, string(k.Opponent)...)
}

// HostPrefix is the encoded prefix shared by every key hosted by host.
func HostPrefix(host address.Addr) []byte {
	out := make([]byte, 2, 2+len(host)+address.DefaultMaxLen)
	binary.BigEndian.PutUint16(out, uint16(len(host)))
	return append(out, string(host)...)
}

func DecodeKey(raw []byte) (Key, error) {
	if len(raw) < 2 {
		return Key{}, fmt.Errorf("%w: %d bytes", ErrMalformedKey, len(raw))
	}
	n := int(binary.BigEndian.Uint16(raw))
	if len(raw) < 2+n {
		return Key{}, fmt.Errorf("%w: host length %d exceeds key", ErrMalformedKey, n)
	}
	return Key{
		Host:     address.Addr(raw[2 : 2+n]),
		Opponent: address.Addr(raw[2+n:]),
	}, nil
}
