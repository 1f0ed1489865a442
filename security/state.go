// Package security provides the CSRF state source and request throttling
// used around the authorization flow.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// stateAlphabet is the mixed-case alphanumeric alphabet for CSRF states.
// 62 symbols at 20 characters gives just under 120 bits of entropy.
const stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultStateLength is the default CSRF state length in characters.
const DefaultStateLength = 20

// StateSource produces CSRF state values. The pipeline takes it as an
// injectable dependency so tests can substitute a deterministic source.
type StateSource interface {
	// State returns a fresh unguessable state value.
	State() string
}

// CryptoStateSource draws states from crypto/rand. The zero value produces
// states of DefaultStateLength.
type CryptoStateSource struct {
	// Length is the state length in characters. Values below
	// DefaultStateLength are raised to it: the entropy floor is not
	// negotiable downward.
	Length int
}

// State returns a fresh mixed-case alphanumeric state value.
// The function panics if the system's random number generator fails,
// which indicates a critical system-level security failure.
func (s CryptoStateSource) State() string {
	length := s.Length
	if length < DefaultStateLength {
		length = DefaultStateLength
	}
	max := big.NewInt(int64(len(stateAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		out[i] = stateAlphabet[n.Int64()]
	}
	return string(out)
}

// SecureCompare reports whether a and b are equal without leaking where
// they differ through timing. Used for the callback state check.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
