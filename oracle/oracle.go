// Package oracle builds the block cipher oracles the attacks in blockoracle
// run against. Secrets are injected, so the same attack can be exercised with
// any key.
package oracle

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/manelmontilla/blockoracle/crypto"
)

// ECB encrypts prefix||input||suffix with AES in ECB mode under a fixed key.
type ECB struct {
	block          cipher.Block
	prefix, suffix []byte
}

// NewECB returns an ECB oracle. key must be a valid AES key.
func NewECB(key, prefix, suffix []byte) (*ECB, error) {
	b, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &ECB{block: b, prefix: dup(prefix), suffix: dup(suffix)}, nil
}

// Encrypt returns the encryption of prefix||p||suffix, PKCS#7 padded.
func (e *ECB) Encrypt(p []byte) []byte {
	return crypto.ECBEncrypt(e.block, crypto.PKCS7Pad(wrap(e.prefix, p, e.suffix), e.block.BlockSize()))
}

// CBC encrypts prefix||input||suffix with AES in CBC mode under a fixed key
// and IV. The output does not include the IV.
type CBC struct {
	block          cipher.Block
	iv             []byte
	prefix, suffix []byte
}

// NewCBC returns a CBC oracle. key must be a valid AES key and iv one block
// long.
func NewCBC(key, iv, prefix, suffix []byte) (*CBC, error) {
	b, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != b.BlockSize() {
		return nil, errors.New("invalid iv length")
	}
	return &CBC{block: b, iv: dup(iv), prefix: dup(prefix), suffix: dup(suffix)}, nil
}

// Encrypt returns the encryption of prefix||p||suffix, PKCS#7 padded.
func (c *CBC) Encrypt(p []byte) []byte {
	m := crypto.PKCS7Pad(wrap(c.prefix, p, c.suffix), c.block.BlockSize())
	return crypto.CBCEncrypt(c.block, c.iv, m)[len(c.iv):]
}

// Padding decrypts AES-CBC ciphertexts and only tells whether their pad is
// valid.
type Padding struct {
	block cipher.Block
}

// NewPadding returns a padding oracle. key must be a valid AES key.
func NewPadding(key []byte) (*Padding, error) {
	b, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Padding{block: b}, nil
}

// BlockSize returns the cipher block size.
func (p *Padding) BlockSize() int {
	return p.block.BlockSize()
}

// Encrypt pads msg and returns iv||ciphertext. iv must be one block long.
func (p *Padding) Encrypt(iv, msg []byte) []byte {
	return crypto.CBCEncrypt(p.block, iv, crypto.PKCS7Pad(msg, p.block.BlockSize()))
}

// Decrypt decrypts iv||ciphertext and removes the pad.
func (p *Padding) Decrypt(c []byte) ([]byte, error) {
	n := p.block.BlockSize()
	if len(c) < 2*n || len(c)%n != 0 {
		return nil, crypto.ErrBadPadding
	}
	return crypto.PKCS7Unpad(crypto.CBCDecrypt(p.block, c), n)
}

// Do reports whether c, an iv||ciphertext, decrypts to a valid pad.
// Malformed ciphertexts are reported as invalid.
func (p *Padding) Do(c []byte) (bool, error) {
	_, err := p.Decrypt(c)
	if errors.Is(err, crypto.ErrBadPadding) {
		return false, nil
	}
	return err == nil, err
}

func wrap(prefix, p, suffix []byte) []byte {
	m := make([]byte, 0, len(prefix)+len(p)+len(suffix))
	m = append(m, prefix...)
	m = append(m, p...)
	return append(m, suffix...)
}

func dup(b []byte) []byte {
	return append([]byte(nil), b...)
}
