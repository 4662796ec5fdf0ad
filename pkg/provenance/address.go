package provenance

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte width of a ledger address.
const AddressLength = 16

// GenesisMarker is reported in place of the genesis address when it appears as a creator.
const GenesisMarker = "Genesis"

// EventsKeyPrefix widens an address into the key its received/sent payment events are stored under.
const EventsKeyPrefix = "0000000000000000"

// Address is a ledger address. Its text form is lowercase hex without a 0x prefix.
type Address [AddressLength]byte

// GenesisAddress is the reserved all-zero address of the chain's origin account.
var GenesisAddress Address

// ParseAddress parses a hex address, case-insensitively and with an optional 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != AddressLength*2 {
		return a, fmt.Errorf("address %q: want %d hex characters, got %d", s, AddressLength*2, len(s))
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return a, fmt.Errorf("address %q: %w", s, err)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// parseOptional returns nil for an empty or malformed address.
func parseOptional(s string) *Address {
	if s == "" {
		return nil
	}
	a, err := ParseAddress(s)
	if err != nil {
		return nil
	}
	return &a
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsGenesis reports whether a is the genesis sentinel.
func (a Address) IsGenesis() bool {
	return a == GenesisAddress
}

// Creator is the reported form of a as an onboarding creator.
func (a Address) Creator() string {
	if a.IsGenesis() {
		return GenesisMarker
	}
	return a.String()
}

// EventsKey is the event-log key holding a's payment events.
func (a Address) EventsKey() string {
	return EventsKeyPrefix + a.String()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func addressPtr(a Address) *Address {
	return &a
}
