package score

import (
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// defaultRivals are the languages a Language scorer is compared against when
// none are given.
var defaultRivals = []lingua.Language{lingua.German, lingua.French, lingua.Spanish}

// Language scores buffers by the confidence a lingua detector has that they
// are written in the target language. It is slower than EnglishScore but
// works for any language lingua knows.
type Language struct {
	detector lingua.LanguageDetector
	target   lingua.Language
}

// NewLanguage returns a Language scorer for target. The detector chooses
// between target and rivals.
func NewLanguage(target lingua.Language, rivals ...lingua.Language) *Language {
	langs := []lingua.Language{target}
	for _, r := range rivals {
		if r != target {
			langs = append(langs, r)
		}
	}
	// lingua needs at least two languages to choose from.
	if len(langs) == 1 {
		for _, r := range defaultRivals {
			if r != target {
				langs = append(langs, r)
			}
		}
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		Build()
	return &Language{detector: detector, target: target}
}

// Score returns the confidence, between 0 and 1, that b is written in the
// target language. Buffers that are not valid UTF-8 score 0.
func (s *Language) Score(b []byte) float64 {
	if len(b) == 0 || !utf8.Valid(b) {
		return 0
	}
	return s.detector.ComputeLanguageConfidence(string(b), s.target)
}
