// Package blockoracle recovers hidden plaintext from block cipher oracles
// without learning their key.
//
// An Oracle encrypts attacker chosen bytes together with hidden material.
// Probe infers its block size and the lengths of its hidden prefix and
// suffix, DetectMode tells ECB from CBC and ExtractSuffix recovers an ECB
// suffix byte at a time. A PaddingOracle only reports whether a CBC
// ciphertext decrypts to a valid PKCS#7 pad. Decrypt recovers the plaintext
// behind any ciphertext it accepts and Encrypt forges ciphertexts for chosen
// plaintexts.
package blockoracle

import (
	"errors"
	"io"
	"log"
)

var (
	// ErrInvalidCiphertext is returned by the Decrypt function when
	// the cyphertext passed in is malformed or rejected by the oracle.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrInsufficientSample is returned by Classify when the ciphertext is
	// shorter than three blocks.
	ErrInsufficientSample = errors.New("insufficient sample")

	// ErrBlockSizeUndetermined is returned by Probe when the output length of
	// the oracle does not change within MaxProbeLen bytes of input.
	ErrBlockSizeUndetermined = errors.New("block size undetermined")

	// ErrOracleInconsistency is returned when a byte search finds no match or
	// more than one match where exactly one is expected.
	ErrOracleInconsistency = errors.New("oracle inconsistency")

	// MaxGoroutines the maximun number of wokers making queries concurrently to the
	// oracle.
	MaxGoroutines = 20

	// MaxProbeLen is the longest input Probe feeds to the oracle while
	// looking for a change in the output length.
	MaxProbeLen = 32
)

// Oracle encrypts the given bytes together with material hidden to the
// caller. It must be deterministic for the duration of an attack and safe for
// concurrent use when MaxGoroutines is greater than one.
type Oracle func(p []byte) []byte

// PaddingOracle defines the shape of the oracle querier needed by Decrypt and
// Encrypt.
type PaddingOracle interface {
	// Do queries the oracle with the iv||cyphertext defined in the c param.
	// It returns false if the pad of the decrypted message is invalid. A
	// non nil error means the query itself failed and aborts the attack.
	Do(c []byte) (bool, error)
}

// PaddingOracleFunc adapts a padding check function to a PaddingOracle.
type PaddingOracleFunc func(c []byte) bool

// Do calls f(c).
func (f PaddingOracleFunc) Do(c []byte) (bool, error) {
	return f(c), nil
}

// BlockGuess holds the structural parameters inferred by Probe.
type BlockGuess struct {
	BlockSize int
	PrefixLen int
	SuffixLen int
}

// Extra returns the number of bytes the oracle adds to the input.
func (g BlockGuess) Extra() int {
	return g.PrefixLen + g.SuffixLen
}

type stepStatus int

const (
	stepContinue stepStatus = iota
	stepDone
	stepFailed
)

func logger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard, "", 0)
	}
	return l
}
