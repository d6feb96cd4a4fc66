package blockoracle

import (
	"bytes"
	"log"

	"github.com/samber/oops"
)

// ExtractSuffix recovers the suffix an ECB oracle appends to the input, one
// byte at a time. g is the structure inferred by Probe.
//
// For every suffix position the input is shortened so the unknown byte lands
// last in a block, and that block is compared with the encryption of a probe
// block holding the known bytes followed by each of the 256 candidates.
func ExtractSuffix(o Oracle, g BlockGuess, l *log.Logger) ([]byte, error) {
	if g.BlockSize < 1 {
		return nil, oops.
			In("ecb").
			Wrapf(ErrBlockSizeUndetermined, "invalid block size %d", g.BlockSize)
	}
	x := newECBExtraction(o, g, logger(l))
	for {
		switch x.step() {
		case stepDone:
			return x.secret, nil
		case stepFailed:
			return nil, x.err
		}
	}
}

type ecbExtraction struct {
	oracle Oracle
	guess  BlockGuess
	// align filler bytes complete the last prefix block, skip blocks are
	// then owned by the prefix.
	align, skip int
	// probe holds the last BlockSize-1 recovered bytes, zero filled on the
	// left, followed by the candidate slot.
	probe  []byte
	secret []byte
	l      *log.Logger
	err    error
}

func newECBExtraction(o Oracle, g BlockGuess, l *log.Logger) *ecbExtraction {
	bs := g.BlockSize
	align := (bs - g.PrefixLen%bs) % bs
	return &ecbExtraction{
		oracle: o,
		guess:  g,
		align:  align,
		skip:   (g.PrefixLen + align) / bs,
		probe:  make([]byte, bs),
		secret: make([]byte, 0, g.SuffixLen),
		l:      l,
	}
}

func (x *ecbExtraction) step() stepStatus {
	bs := x.guess.BlockSize
	p := len(x.secret)
	if p >= x.guess.SuffixLen {
		return stepDone
	}
	blockIndex := p / bs
	short := bs - 1 - p%bs

	ct := x.oracle(make([]byte, x.align+short))
	off := (x.skip + blockIndex) * bs
	if len(ct) < off+bs {
		x.err = oops.
			In("ecb").
			With("position", p).
			With("output_len", len(ct)).
			Wrapf(ErrOracleInconsistency, "output too short for the target block")
		return stepFailed
	}
	ref := ct[off : off+bs]

	first := x.skip * bs
	matches, err := searchByte(func(c byte) (bool, error) {
		in := make([]byte, x.align+bs)
		copy(in[x.align:], x.probe)
		in[len(in)-1] = c
		out := x.oracle(in)
		if len(out) < first+bs {
			return false, nil
		}
		return bytes.Equal(out[first:first+bs], ref), nil
	})
	if err != nil {
		x.err = err
		return stepFailed
	}

	switch len(matches) {
	case 0:
		// The hidden bytes are over, the rest of the block is padding.
		x.l.Printf("no candidate for byte %d, stopping", p)
		return stepDone
	case 1:
	default:
		x.err = oops.
			In("ecb").
			With("position", p).
			With("matches", matches).
			Wrapf(ErrOracleInconsistency, "%d candidates for byte %d", len(matches), p)
		return stepFailed
	}

	b := matches[0]
	x.secret = append(x.secret, b)
	x.probe[bs-1] = b
	copy(x.probe, x.probe[1:])
	if (p+1)%bs == 0 {
		x.l.Printf("decrypted block %d", blockIndex)
	}
	return stepContinue
}
