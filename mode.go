package blockoracle

import (
	"github.com/samber/oops"

	"github.com/manelmontilla/blockoracle/crypto"
	"github.com/manelmontilla/blockoracle/score"
)

// Mode is a block cipher mode of operation.
type Mode int

// Modes told apart by Classify. Unknown is returned together with an error.
const (
	Unknown Mode = iota
	ECB
	CBC
)

func (m Mode) String() string {
	switch m {
	case ECB:
		return "ECB"
	case CBC:
		return "CBC"
	default:
		return "unknown"
	}
}

// Classify tells whether ct was produced in ECB or CBC mode by comparing the
// two blocks around its centre: identical blocks mean ECB, anything else
// CBC. It is only meaningful when the plaintext holds identical blocks at
// those positions, as the input built by DetectMode does. ct must be at
// least three blocks long.
func Classify(ct []byte, blockSize int) (Mode, error) {
	if blockSize < 1 || len(ct) < 3*blockSize {
		return Unknown, oops.
			In("classify").
			With("len", len(ct)).
			With("block_size", blockSize).
			Wrapf(ErrInsufficientSample, "need at least 3 blocks")
	}
	n := len(ct) / blockSize
	mid := (n / 2) * blockSize
	first := ct[mid-blockSize : mid]
	second := ct[mid : mid+blockSize]
	if score.HammingDistance(first, second) == 0 {
		return ECB, nil
	}
	return CBC, nil
}

// DetectMode classifies the oracle mode. It feeds enough identical bytes for
// the centre of the output to fall inside them, wherever the hidden prefix
// ends.
func DetectMode(o Oracle, g BlockGuess) (Mode, error) {
	if g.BlockSize < 1 {
		return Unknown, oops.
			In("classify").
			Wrapf(ErrBlockSizeUndetermined, "invalid block size %d", g.BlockSize)
	}
	filler := make([]byte, g.Extra()+4*g.BlockSize)
	return Classify(o(filler), g.BlockSize)
}

// RepeatedBlocks returns the number of blocks of ct that are equal to an
// earlier block.
func RepeatedBlocks(ct []byte, blockSize int) int {
	seen := map[string]bool{}
	count := 0
	for _, b := range crypto.Blocks(ct, blockSize) {
		k := string(b)
		if seen[k] {
			count++
			continue
		}
		seen[k] = true
	}
	return count
}
