package blockoracle

import (
	"log"

	"github.com/samber/oops"

	"github.com/manelmontilla/blockoracle/crypto"
)

// Decrypt performs a decrypt attack using the given iv||ciphertext and oracle
// querier. It returns the plaintext with the pad removed. It uses the logger
// l to write info about the status of the attack.
func Decrypt(c []byte, blockSize int, q PaddingOracle, l *log.Logger) ([]byte, error) {
	l = logger(l)
	if err := checkCiphertext(c, blockSize); err != nil {
		return nil, err
	}
	ok, err := q.Do(c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, oops.
			In("padding").
			Wrapf(ErrInvalidCiphertext, "the oracle rejects the ciphertext")
	}
	k, err := padLen(c, blockSize, q)
	if err != nil {
		return nil, err
	}
	l.Printf("pad length %d", k)
	return newPaddingAttack(c, blockSize, k, q, l).run()
}

// Encrypt performs an encrypt attack: it returns an iv||ciphertext the oracle
// decrypts to msg. The last block is arbitrary, every other block is chosen
// so the block after it decrypts to the corresponding block of the padded
// message. It uses the logger l to write info about the status of the
// attack.
func Encrypt(msg []byte, blockSize int, q PaddingOracle, l *log.Logger) ([]byte, error) {
	l = logger(l)
	if blockSize < 2 || blockSize > 0xff {
		return nil, oops.
			In("padding").
			Wrapf(ErrInvalidCiphertext, "invalid block size %d", blockSize)
	}
	m := crypto.PKCS7Pad(msg, blockSize)
	n := len(m) / blockSize

	c1 := make([]byte, blockSize)
	c := append([]byte(nil), c1...)
	for i := n - 1; i >= 0; i-- {
		l.Printf("forging block %d of %d", n-i, n)
		// Decrypting c1 after a zero block yields its intermediate state.
		di, err := newPaddingAttack(append(make([]byte, blockSize), c1...), blockSize, 0, q, l).run()
		if err != nil {
			return nil, err
		}
		ti := m[i*blockSize : (i+1)*blockSize]
		c1 = crypto.BlockXOR(ti, di)
		c = append(c1, c...)
	}
	return c, nil
}

func checkCiphertext(c []byte, blockSize int) error {
	if blockSize < 2 || blockSize > 0xff {
		return oops.
			In("padding").
			Wrapf(ErrInvalidCiphertext, "invalid block size %d", blockSize)
	}
	if len(c) < 2*blockSize || len(c)%blockSize != 0 {
		return oops.
			In("padding").
			With("len", len(c)).
			With("block_size", blockSize).
			Wrapf(ErrInvalidCiphertext, "want iv and at least one block")
	}
	return nil
}

// padLen returns the pad length of the plaintext behind c. Flipping a bit of
// the block before the last one flips the same bit of the last plaintext
// block. The pad stays valid only once the flip falls before the pad.
func padLen(c []byte, blockSize int, q PaddingOracle) (int, error) {
	last := len(c) - blockSize
	try := make([]byte, len(c))
	for off := 0; off < blockSize; off++ {
		copy(try, c)
		try[last-1-off] ^= 0x01
		ok, err := q.Do(try)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		if off == 0 {
			return 0, oops.
				In("padding").
				Wrapf(ErrOracleInconsistency, "pad accepted after changing its last byte")
		}
		return off, nil
	}
	return blockSize, nil
}

// paddingAttack recovers the plaintext behind c from the last byte to the
// first. The target block is the one ending at boundary; it is decrypted
// after a forged copy of the block before it. Its last pad bytes are known
// and forged makes them decrypt to pad.
type paddingAttack struct {
	q        PaddingOracle
	bs       int
	c        []byte
	boundary int
	pad      int
	forged   []byte
	// secret holds the recovered bytes in reverse order.
	secret []byte
	l      *log.Logger
	err    error
}

func newPaddingAttack(c []byte, blockSize, pad int, q PaddingOracle, l *log.Logger) *paddingAttack {
	a := &paddingAttack{
		q:        q,
		bs:       blockSize,
		c:        c,
		boundary: len(c),
		pad:      pad,
		secret:   make([]byte, 0, len(c)-blockSize),
		l:        l,
	}
	a.forged = append([]byte(nil), a.prev()...)
	return a
}

func (a *paddingAttack) run() ([]byte, error) {
	for {
		switch a.step() {
		case stepDone:
			res := make([]byte, len(a.secret))
			for i, b := range a.secret {
				res[len(res)-1-i] = b
			}
			return res, nil
		case stepFailed:
			return nil, a.err
		}
	}
}

func (a *paddingAttack) prev() []byte {
	return a.c[a.boundary-2*a.bs : a.boundary-a.bs]
}

func (a *paddingAttack) target() []byte {
	return a.c[a.boundary-a.bs : a.boundary]
}

func (a *paddingAttack) step() stepStatus {
	if a.pad >= a.bs {
		// The target block is decrypted, move to the previous one.
		a.boundary -= a.bs
		a.pad = 0
		if a.boundary < 2*a.bs {
			return stepDone
		}
		a.forged = append(a.forged[:0], a.prev()...)
		a.l.Printf("decrypting block %d of %d", a.boundary/a.bs-1, len(a.c)/a.bs-1)
	}

	// Increment padding: the known bytes decrypt to pad+1 from now on.
	for j := a.bs - a.pad; j < a.bs; j++ {
		a.forged[j] ^= byte(a.pad) ^ byte(a.pad+1)
	}

	t := a.bs - 1 - a.pad
	matches, err := searchByte(func(g byte) (bool, error) {
		return a.q.Do(a.query(t, g, false))
	})
	if err != nil {
		a.err = err
		return stepFailed
	}
	if a.pad == 0 && len(matches) > 1 {
		if matches, err = a.disambiguate(t, matches); err != nil {
			a.err = err
			return stepFailed
		}
	}
	pos := a.boundary - 2*a.bs + t
	if len(matches) != 1 {
		a.err = oops.
			In("padding").
			With("position", pos).
			With("matches", matches).
			Wrapf(ErrOracleInconsistency, "%d candidates for byte %d", len(matches), pos)
		return stepFailed
	}

	g := matches[0]
	a.forged[t] = g
	b := g ^ byte(a.pad+1) ^ a.prev()[t]
	a.secret = append(a.secret, b)
	a.pad++
	a.l.Printf("decrypted byte %d value: %d", pos, b)
	return stepContinue
}

// disambiguate keeps the candidates that still yield a valid pad after the
// byte before t is changed. With no known bytes a candidate may complete a
// longer pad, as 02 02, besides the one producing a single 01.
func (a *paddingAttack) disambiguate(t int, matches []byte) ([]byte, error) {
	var res []byte
	for _, g := range matches {
		ok, err := a.q.Do(a.query(t, g, true))
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, g)
		}
	}
	return res, nil
}

// query builds forged||target with g at position t of the forged block.
func (a *paddingAttack) query(t int, g byte, maul bool) []byte {
	try := make([]byte, 0, 2*a.bs)
	try = append(try, a.forged...)
	try[t] = g
	if maul {
		try[t-1] ^= 0xff
	}
	return append(try, a.target()...)
}
