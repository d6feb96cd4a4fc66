// Package score ranks candidate plaintexts and breaks XOR ciphers with the
// ranking.
package score

import "math/bits"

// Scorer rates how much a buffer looks like plaintext. Higher is better.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(b []byte) float64
}

// ScorerFunc adapts a function to a Scorer.
type ScorerFunc func(b []byte) float64

// Score calls f(b).
func (f ScorerFunc) Score(b []byte) float64 {
	return f(b)
}

// English is the letter frequency Scorer.
var English Scorer = ScorerFunc(EnglishScore)

// Relative frequency, in percent, of each letter in English text.
var letterFreq = [26]float64{
	8.167, 1.492, 2.782, 4.253, 12.702, 2.228, 2.015, // a-g
	6.094, 6.966, 0.153, 0.772, 4.025, 2.406, 6.749, // h-n
	7.507, 1.929, 0.095, 5.987, 6.327, 9.056, 2.758, // o-u
	0.978, 2.360, 0.150, 1.974, 0.074, // v-z
}

const (
	lowerWeight = 1.0
	upperWeight = 0.75

	controlPenalty = 20.0
	symbolPenalty  = 2.0
	spaceBonus     = 13.0
	plausibleBonus = 2.0
)

// EnglishScore scores b by English letter frequency. Uppercase letters count
// less than lowercase ones, control bytes are penalized and whitespace and
// common punctuation are rewarded. The empty buffer scores 0.
func EnglishScore(b []byte) float64 {
	var counts [26]float64
	var penalty float64
	for _, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			counts[c-'a'] += lowerWeight
		case c >= 'A' && c <= 'Z':
			counts[c-'A'] += upperWeight
		case c == ' ':
			penalty -= spaceBonus
		case c == '\'' || c == '\n' || c == '\r' || c == '.' || c == ',':
			penalty -= plausibleBonus
		case c >= '0' && c <= '9' || c == '\t':
		case c > ' ' && c < 0x7f:
			penalty += symbolPenalty
		default:
			penalty += controlPenalty
		}
	}
	var score float64
	for i, n := range counts {
		score += letterFreq[i] * n
	}
	return score - penalty
}

// HammingDistance returns the number of differing bits between a and b. The
// bytes of the longer buffer past the end of the shorter one are ignored.
func HammingDistance(a, b []byte) int {
	if len(b) < len(a) {
		a = a[:len(b)]
	}
	d := 0
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d
}
