package blockoracle

import (
	"bytes"
	"log"

	"github.com/samber/oops"
)

// Filler bytes used to split the hidden bytes into prefix and suffix. Two
// values are needed: a prefix ending with, or a suffix starting with, the
// filler byte would otherwise shorten the estimate.
var splitFillers = []byte{0x00, 0xff}

// Probe infers the block size of o and the lengths of the prefix and suffix
// it adds to the input. Hidden bytes are reported as suffix when o never
// outputs two identical consecutive blocks, as happens with CBC oracles.
func Probe(o Oracle, l *log.Logger) (BlockGuess, error) {
	l = logger(l)
	l0 := len(o(nil))
	bs, extra := 0, 0
	for i := 0; i < MaxProbeLen; i++ {
		if n := len(o(make([]byte, i))); n != l0 {
			bs = n - l0
			extra = l0 - i
			break
		}
	}
	if bs <= 0 {
		l.Printf("failed to guess a block size within %d bytes", MaxProbeLen)
		return BlockGuess{}, oops.
			In("probe").
			With("max_probe_len", MaxProbeLen).
			With("output_len", l0).
			Wrapf(ErrBlockSizeUndetermined, "output length did not change")
	}
	l.Printf("block size %d, %d hidden bytes", bs, extra)

	g := BlockGuess{BlockSize: bs, SuffixLen: extra}
	prefix, ok := prefixLen(o, bs)
	if !ok {
		l.Printf("no repeated blocks, treating the hidden bytes as suffix")
		return g, nil
	}
	if prefix < 0 || prefix > extra {
		return BlockGuess{}, oops.
			In("probe").
			With("prefix_len", prefix).
			With("extra", extra).
			Wrapf(ErrOracleInconsistency, "prefix length out of range")
	}
	g.PrefixLen = prefix
	g.SuffixLen = extra - prefix
	l.Printf("prefix %d bytes, suffix %d bytes", g.PrefixLen, g.SuffixLen)
	return g, nil
}

// prefixLen finds the shortest run of filler that yields two identical
// consecutive filler blocks. That run is 2*bs plus the bytes needed to
// complete the last prefix block, and the pair starts right after the
// prefix.
func prefixLen(o Oracle, bs int) (int, bool) {
	best, pair := -1, -1
	for i, f := range splitFillers {
		other := splitFillers[(i+1)%len(splitFillers)]
		m, j, ok := shortestPairedFiller(o, bs, f, other)
		if !ok {
			return 0, false
		}
		if m > best {
			best, pair = m, j
		}
	}
	return pair*bs - (best - 2*bs), true
}

// shortestPairedFiller only accepts pairs whose blocks change when the run
// of f is replaced by a run of other, so repeated blocks of the prefix or
// the suffix are ignored.
func shortestPairedFiller(o Oracle, bs int, f, other byte) (int, int, bool) {
	for m := 2 * bs; m < 3*bs; m++ {
		ct := o(bytes.Repeat([]byte{f}, m))
		alt := o(bytes.Repeat([]byte{other}, m))
		if j := firstFillerPair(ct, alt, bs); j >= 0 {
			return m, j, true
		}
	}
	return 0, 0, false
}

// firstFillerPair returns the index of the first block of ct that is equal to
// the next one and differs from the same block of alt, or -1.
func firstFillerPair(ct, alt []byte, bs int) int {
	for i := 0; i+2*bs <= len(ct); i += bs {
		b := ct[i : i+bs]
		if !bytes.Equal(b, ct[i+bs:i+2*bs]) {
			continue
		}
		if i+bs <= len(alt) && bytes.Equal(b, alt[i:i+bs]) {
			continue
		}
		return i / bs
	}
	return -1
}
