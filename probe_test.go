package blockoracle

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manelmontilla/blockoracle/crypto"
	"github.com/manelmontilla/blockoracle/oracle"
)

const rollinB64 = "Um9sbGluJyBpbiBteSA1LjAKV2l0aCBteSByYWctdG9wIGRvd24gc28gbXkg" +
	"aGFpciBjYW4gYmxvdwpUaGUgZ2lybGllcyBvbiBzdGFuZGJ5IHdhdmluZyBq" +
	"dXN0IHRvIHNheSBoaQpEaWQgeW91IHN0b3A/IE5vLCBJIGp1c3QgZHJvdmUg" +
	"YnkK"

func rollin(t *testing.T) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(rollinB64)
	require.NoError(t, err)
	require.Len(t, b, 138)
	return b
}

func newECBOracle(t *testing.T, prefix, suffix []byte) Oracle {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	o, err := oracle.NewECB(key, prefix, suffix)
	require.NoError(t, err)
	return o.Encrypt
}

func TestProbe(t *testing.T) {
	type args struct {
		prefix []byte
		suffix []byte
	}
	tests := []struct {
		name string
		args args
		want BlockGuess
	}{
		{
			name: "SuffixOnly",
			args: args{suffix: rollinB64Decoded()},
			want: BlockGuess{BlockSize: 16, PrefixLen: 0, SuffixLen: 138},
		},
		{
			name: "AlignedPrefix",
			args: args{prefix: bytes.Repeat([]byte{'p'}, 16), suffix: []byte("secret")},
			want: BlockGuess{BlockSize: 16, PrefixLen: 16, SuffixLen: 6},
		},
		{
			name: "UnalignedPrefix",
			args: args{prefix: []byte("0123456789"), suffix: rollinB64Decoded()},
			want: BlockGuess{BlockSize: 16, PrefixLen: 10, SuffixLen: 138},
		},
		{
			name: "PrefixEndingWithFiller",
			args: args{prefix: []byte("abcd\x00"), suffix: []byte("secret")},
			want: BlockGuess{BlockSize: 16, PrefixLen: 5, SuffixLen: 6},
		},
		{
			name: "SuffixStartingWithFiller",
			args: args{prefix: []byte("abcde"), suffix: []byte("\xff\x00secret")},
			want: BlockGuess{BlockSize: 16, PrefixLen: 5, SuffixLen: 8},
		},
		{
			name: "SuffixWithRepeatedBlocks",
			args: args{prefix: []byte("abcde"), suffix: bytes.Repeat([]byte{'A'}, 64)},
			want: BlockGuess{BlockSize: 16, PrefixLen: 5, SuffixLen: 64},
		},
		{
			name: "PrefixWithRepeatedBlocks",
			args: args{prefix: bytes.Repeat([]byte{'X'}, 40), suffix: bytes.Repeat([]byte{'Y'}, 40)},
			want: BlockGuess{BlockSize: 16, PrefixLen: 40, SuffixLen: 40},
		},
		{
			name: "NothingHidden",
			args: args{},
			want: BlockGuess{BlockSize: 16},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newECBOracle(t, tt.args.prefix, tt.args.suffix)
			got, err := Probe(o, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProbeRandomPrefix(t *testing.T) {
	suffix := rollin(t)
	for n := 0; n <= 50; n++ {
		prefix, err := crypto.RandomBytes(n)
		require.NoError(t, err)
		got, err := Probe(newECBOracle(t, prefix, suffix), nil)
		require.NoError(t, err)
		assert.Equal(t, BlockGuess{BlockSize: 16, PrefixLen: n, SuffixLen: 138}, got, "prefix %d", n)
	}
}

func TestExtractSuffixWithRepeatedBlocks(t *testing.T) {
	suffix := append(bytes.Repeat([]byte{'A'}, 64), "and the rest"...)
	o := newECBOracle(t, []byte("abcde"), suffix)
	g, err := Probe(o, nil)
	require.NoError(t, err)
	got, err := ExtractSuffix(o, g, nil)
	require.NoError(t, err)
	assert.Equal(t, suffix, got)
}

func TestFirstFillerPair(t *testing.T) {
	ct := []byte("AAAABBBBBBBBCCCCCCCC")
	// Only the C pair changes with the filler.
	alt := []byte("AAAABBBBBBBBDDDDDDDD")
	assert.Equal(t, 3, firstFillerPair(ct, alt, 4))
	assert.Equal(t, 1, firstFillerPair(ct, []byte("AAAADDDD"), 4))
	assert.Equal(t, -1, firstFillerPair(ct, ct, 4))
}

func TestProbeCBC(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	iv, err := crypto.RandomBytes(16)
	require.NoError(t, err)
	o, err := oracle.NewCBC(key, iv, []byte("prefix"), []byte("suffix"))
	require.NoError(t, err)

	got, err := Probe(o.Encrypt, nil)
	require.NoError(t, err)
	assert.Equal(t, BlockGuess{BlockSize: 16, PrefixLen: 0, SuffixLen: 12}, got)
}

func TestProbeUndetermined(t *testing.T) {
	constant := func([]byte) []byte { return make([]byte, 64) }
	got, err := Probe(constant, nil)
	assert.ErrorIs(t, err, ErrBlockSizeUndetermined)
	assert.Zero(t, got.BlockSize)
}

func rollinB64Decoded() []byte {
	b, _ := base64.StdEncoding.DecodeString(rollinB64)
	return b
}
