package score

import (
	"sort"
	"sync"
)

// Key length range searched by BreakRepeatingKeyXOR.
const (
	MinKeyLen = 2
	MaxKeyLen = 40

	// keyLenCandidates is the number of ranked key lengths
	// BreakRepeatingKeyXOR fully decrypts.
	keyLenCandidates = 4
)

// Guess is a single byte key together with the score of the decryption it
// produces.
type Guess struct {
	Key   byte
	Score float64
}

// XORByte returns b xored with k.
func XORByte(b []byte, k byte) []byte {
	res := make([]byte, len(b))
	for i := range b {
		res[i] = b[i] ^ k
	}
	return res
}

// XOR returns b xored with the repeating key.
func XOR(b, key []byte) []byte {
	res := make([]byte, len(b))
	for i := range b {
		res[i] = b[i] ^ key[i%len(key)]
	}
	return res
}

// SingleByteXOR finds the byte that b has been xored with. All 256 keys are
// scored concurrently; the highest score wins and ties go to the lowest key.
func SingleByteXOR(b []byte, s Scorer) Guess {
	var scores [256]float64
	var wg sync.WaitGroup
	for k := 0; k < 256; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			scores[k] = s.Score(XORByte(b, byte(k)))
		}(k)
	}
	wg.Wait()

	best := Guess{Key: 0, Score: scores[0]}
	for k := 1; k < 256; k++ {
		if scores[k] > best.Score {
			best = Guess{Key: byte(k), Score: scores[k]}
		}
	}
	return best
}

// DetectSingleByteXOR finds which of lines has been xored with a single
// byte. It returns the index of the line whose best decryption scores
// highest, with its key, or -1 when lines is empty. Ties go to the first
// line.
func DetectSingleByteXOR(lines [][]byte, s Scorer) (int, Guess) {
	idx, best := -1, Guess{}
	for i, l := range lines {
		g := SingleByteXOR(l, s)
		if idx < 0 || g.Score > best.Score {
			idx, best = i, g
		}
	}
	return idx, best
}

// KeySizes ranks the key lengths in [lo, hi] by the average Hamming
// distance, normalized by the length, between consecutive chunks of b. It
// returns at most n lengths, the most likely first. Lengths for which b does
// not hold two chunks are skipped. lo is raised to 1.
func KeySizes(b []byte, lo, hi, n int) []int {
	type candidate struct {
		size int
		dist float64
	}
	if lo < 1 {
		lo = 1
	}
	var cs []candidate
	for size := lo; size <= hi; size++ {
		pairs := len(b)/size - 1
		if pairs < 1 {
			break
		}
		total := 0
		for i := 0; i < pairs; i++ {
			first := b[i*size : (i+1)*size]
			second := b[(i+1)*size : (i+2)*size]
			total += HammingDistance(first, second)
		}
		cs = append(cs, candidate{size, float64(total) / float64(pairs*size)})
	}
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].dist < cs[j].dist
	})
	var sizes []int
	for i := 0; i < len(cs) && i < n; i++ {
		sizes = append(sizes, cs[i].size)
	}
	return sizes
}

// RepeatingKeyXOR recovers a key of length keyLen that b has been xored with.
// Every key byte is solved independently as a single byte xor over the bytes
// it covers.
func RepeatingKeyXOR(b []byte, keyLen int, s Scorer) []byte {
	key := make([]byte, keyLen)
	for i := 0; i < keyLen; i++ {
		var stream []byte
		for j := i; j < len(b); j += keyLen {
			stream = append(stream, b[j])
		}
		key[i] = SingleByteXOR(stream, s).Key
	}
	return key
}

// BreakRepeatingKeyXOR guesses both the length and the value of the
// repeating key b has been xored with. It returns nil when b is too short to
// hold two chunks of MinKeyLen bytes.
func BreakRepeatingKeyXOR(b []byte, s Scorer) []byte {
	var best []byte
	var bestScore float64
	for _, size := range KeySizes(b, MinKeyLen, MaxKeyLen, keyLenCandidates) {
		key := RepeatingKeyXOR(b, size, s)
		sc := s.Score(XOR(b, key))
		if best == nil || sc > bestScore || (sc == bestScore && len(key) < len(best)) {
			best, bestScore = key, sc
		}
	}
	// Multiples of the key length rank as well as the length itself, with
	// fewer bytes per stream.
	if d := period(best); d < len(best) {
		best = RepeatingKeyXOR(b, d, s)
	}
	return best
}

// period returns the smallest d dividing len(key) such that key repeats
// with period d in at least three quarters of its bytes.
func period(key []byte) int {
	for d := 1; d < len(key); d++ {
		if len(key)%d != 0 {
			continue
		}
		agree := 0
		for r := 0; r < d; r++ {
			var counts [256]int
			top := 0
			for i := r; i < len(key); i += d {
				counts[key[i]]++
				if counts[key[i]] > top {
					top = counts[key[i]]
				}
			}
			agree += top
		}
		if 4*(len(key)-agree) <= len(key) {
			return d
		}
	}
	return len(key)
}
