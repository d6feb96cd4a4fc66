package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrBadPadding is returned by PKCS7Unpad when the given buffer does not
	// end with a well formed PKCS#7 pad.
	ErrBadPadding = errors.New("bad padding")
)

// KeyIterations is the number of PBKDF2 rounds used by KeyFromPassphrase.
const KeyIterations = 4096

// RandomBytes returns n bytes read from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateKey generates a random AES-128 key.
func GenerateKey() ([]byte, error) {
	return RandomBytes(aes.BlockSize)
}

// KeyFromPassphrase derives an AES-128 key from a passphrase and a salt.
// The same inputs always yield the same key.
func KeyFromPassphrase(pass, salt []byte) []byte {
	return pbkdf2.Key(pass, salt, KeyIterations, aes.BlockSize, sha256.New)
}

// Blocks splits b in chunks of n bytes. The last chunk is shorter when len(b)
// is not a multiple of n. The chunks share memory with b. It returns nil
// when n is not positive.
func Blocks(b []byte, n int) [][]byte {
	if n < 1 {
		return nil
	}
	var res [][]byte
	for len(b) > n {
		res = append(res, b[:n:n])
		b = b[n:]
	}
	if len(b) > 0 {
		res = append(res, b)
	}
	return res
}

// ECBEncrypt encrypts src, that must be block aligned, in ECB mode.
func ECBEncrypt(c cipher.Block, src []byte) []byte {
	n := c.BlockSize()
	dst := make([]byte, len(src))
	for i := 0; i+n <= len(src); i += n {
		c.Encrypt(dst[i:i+n], src[i:i+n])
	}
	return dst
}

// ECBDecrypt decrypts src, that must be block aligned, in ECB mode.
func ECBDecrypt(c cipher.Block, src []byte) []byte {
	n := c.BlockSize()
	dst := make([]byte, len(src))
	for i := 0; i+n <= len(src); i += n {
		c.Decrypt(dst[i:i+n], src[i:i+n])
	}
	return dst
}

// CBCEncrypt encrypts the block aligned msg in CBC mode and returns
// iv||ciphertext.
func CBCEncrypt(c cipher.Block, iv, msg []byte) []byte {
	n := c.BlockSize()
	// Implement the CBC mode. c[i] = e(k,c[i-1] + m[i]), c[-1] = iv.
	ct := bytes.NewBuffer(make([]byte, 0, len(msg)+n))
	ct.Write(iv)
	prev := iv
	for i := 0; i+n <= len(msg); i += n {
		x := BlockXOR(msg[i:i+n], prev)
		c.Encrypt(x, x)
		ct.Write(x)
		prev = x
	}
	return ct.Bytes()
}

// CBCDecrypt accepts a ciphertext in the form iv||cypher and returns the
// decrypted blocks, padding included.
func CBCDecrypt(c cipher.Block, ciphertext []byte) []byte {
	n := c.BlockSize()
	if len(ciphertext) < n {
		return nil
	}
	prev := ciphertext[:n]
	ct := ciphertext[n:]
	m := bytes.NewBuffer(make([]byte, 0, len(ct)))
	aux := make([]byte, n)
	for i := 0; i+n <= len(ct); i += n {
		ci := ct[i : i+n]
		c.Decrypt(aux, ci)
		m.Write(BlockXOR(aux, prev))
		prev = ci
	}
	return m.Bytes()
}

// BlockXOR xors a block with a given "key". The key is repeated when it is
// shorter than the block.
func BlockXOR(block, key []byte) []byte {
	res := make([]byte, len(block))
	for i := 0; i < len(block); i++ {
		res[i] = block[i] ^ key[i%len(key)]
	}
	return res
}

// PKCS7Pad returns a copy of m padded to a multiple of size. It always adds
// between 1 and size bytes.
func PKCS7Pad(m []byte, size int) []byte {
	if size < 1 || size > 0xff {
		panic("PKCS7Pad: invalid block size")
	}
	r := size - len(m)%size
	var b bytes.Buffer
	b.Grow(len(m) + r)
	b.Write(m)
	b.Write(bytes.Repeat([]byte{byte(r)}, r))
	return b.Bytes()
}

// PKCS7Unpad removes the pad from m. The returned slice shares memory with m.
func PKCS7Unpad(m []byte, size int) ([]byte, error) {
	if len(m) == 0 || size < 1 || len(m)%size != 0 {
		return nil, ErrBadPadding
	}
	p := int(m[len(m)-1])
	if p < 1 || p > size {
		return nil, ErrBadPadding
	}
	// Check the pad
	for _, b := range m[len(m)-p:] {
		if b != byte(p) {
			return nil, ErrBadPadding
		}
	}
	return m[:len(m)-p], nil
}
