package crypto

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPKCS7Pad(t *testing.T) {
	tests := []struct {
		name string
		m    string
		size int
		want string
	}{
		{
			name: "PadsToTwenty",
			m:    "YELLOW SUBMARINE",
			size: 20,
			want: "YELLOW SUBMARINE\x04\x04\x04\x04",
		},
		{
			name: "AddsFullBlockWhenAligned",
			m:    "YELLOW SUBMARINE",
			size: 16,
			want: "YELLOW SUBMARINE" + string(bytes.Repeat([]byte{16}, 16)),
		},
		{
			name: "PadsEmpty",
			m:    "",
			size: 8,
			want: string(bytes.Repeat([]byte{8}, 8)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PKCS7Pad([]byte(tt.m), tt.size)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestPKCS7PadLength(t *testing.T) {
	for size := 1; size <= 32; size++ {
		for n := 0; n < 3*size; n++ {
			got := PKCS7Pad(make([]byte, n), size)
			added := len(got) - n
			require.Zero(t, len(got)%size, "size %d len %d", size, n)
			require.True(t, added >= 1 && added <= size, "size %d len %d added %d", size, n, added)
		}
	}
}

func TestPKCS7RoundTrip(t *testing.T) {
	for size := 1; size <= 32; size++ {
		for n := 0; n < 3*size; n++ {
			m, err := RandomBytes(n)
			require.NoError(t, err)
			got, err := PKCS7Unpad(PKCS7Pad(m, size), size)
			require.NoError(t, err)
			require.Equal(t, m, got, "size %d len %d", size, n)
		}
	}
}

func TestPKCS7Unpad(t *testing.T) {
	tests := []struct {
		name    string
		m       string
		want    string
		wantErr bool
	}{
		{
			name: "ValidPad",
			m:    "ICE ICE BABY\x04\x04\x04\x04",
			want: "ICE ICE BABY",
		},
		{
			name:    "WrongPadValue",
			m:       "ICE ICE BABY\x05\x05\x05\x05",
			wantErr: true,
		},
		{
			name:    "IncoherentPad",
			m:       "ICE ICE BABY\x01\x02\x03\x04",
			wantErr: true,
		},
		{
			name:    "ZeroPad",
			m:       "ICE ICE BABY\x00\x00\x00\x00",
			wantErr: true,
		},
		{
			name:    "PadLongerThanBlock",
			m:       "ICE ICE BABY\x04\x04\x04\x11",
			wantErr: true,
		},
		{
			name:    "Unaligned",
			m:       "ICE ICE BABY\x01",
			wantErr: true,
		},
		{
			name:    "Empty",
			m:       "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PKCS7Unpad([]byte(tt.m), 16)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadPadding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestECB(t *testing.T) {
	// echo -n "0123456789abcdef" | openssl enc -nopad -aes-128-ecb -K "$(echo -n 'YELLOW SUBMARINE' | xxd -p)"
	c, err := aes.NewCipher([]byte("YELLOW SUBMARINE"))
	require.NoError(t, err)
	ct := ECBEncrypt(c, []byte("0123456789abcdef"))
	assert.Equal(t, "201e802f7b6ace6f6cd0a743ba78aead", hex.EncodeToString(ct))
	assert.Equal(t, "0123456789abcdef", string(ECBDecrypt(c, ct)))
}

func TestCBC(t *testing.T) {
	// echo -n "0123456789abcdef" | openssl enc -nopad -aes-128-cbc -K "$(echo -n 'YELLOW SUBMARINE' | xxd -p)" -iv "$(echo -n '0123456789abcdef' | xxd -p)"
	c, err := aes.NewCipher([]byte("YELLOW SUBMARINE"))
	require.NoError(t, err)
	iv := []byte("0123456789abcdef")
	ct := CBCEncrypt(c, iv, []byte("0123456789abcdef"))
	assert.Equal(t, iv, ct[:16])
	assert.Equal(t, "76d1cb4bafa246e2e3af035d6c13c372", hex.EncodeToString(ct[16:]))
	assert.Equal(t, "0123456789abcdef", string(CBCDecrypt(c, ct)))
}

func TestCBCRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	c, err := aes.NewCipher(key)
	require.NoError(t, err)
	iv, err := RandomBytes(aes.BlockSize)
	require.NoError(t, err)
	msg := []byte("Somewhere in la Mancha, in a place whose name")
	ct := CBCEncrypt(c, iv, PKCS7Pad(msg, aes.BlockSize))
	got, err := PKCS7Unpad(CBCDecrypt(c, ct), aes.BlockSize)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestKeyFromPassphrase(t *testing.T) {
	k1 := KeyFromPassphrase([]byte("YELLOW SUBMARINE"), []byte("salt"))
	k2 := KeyFromPassphrase([]byte("YELLOW SUBMARINE"), []byte("salt"))
	k3 := KeyFromPassphrase([]byte("YELLOW SUBMARINE"), []byte("pepper"))
	assert.Len(t, k1, aes.BlockSize)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestBlocks(t *testing.T) {
	got := Blocks([]byte("0123456789"), 4)
	assert.Equal(t, [][]byte{[]byte("0123"), []byte("4567"), []byte("89")}, got)
	assert.Len(t, Blocks(make([]byte, 32), 16), 2)
	assert.Empty(t, Blocks(nil, 16))
	assert.Nil(t, Blocks([]byte("abcd"), 0))
	assert.Nil(t, Blocks([]byte("abcd"), -1))
}

func TestBlockXOR(t *testing.T) {
	a, _ := hex.DecodeString("1c0111001f010100061a024b53535009181c")
	b, _ := hex.DecodeString("686974207468652062756c6c277320657965")
	assert.Equal(t, "746865206b696420646f6e277420706c6179", hex.EncodeToString(BlockXOR(a, b)))
}
