package document

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Thresholds configure IsReadable. Words is an alternative to MinLength.
type Thresholds struct {
	MinLength      int
	MinWords       int
	MinLetterRatio float64
	MinUniqueRatio float64
	MinAvgWordLen  float64
	MaxAvgWordLen  float64
}

var (
	// ComplianceThresholds gate full documents before a paid analysis call.
	ComplianceThresholds = Thresholds{
		MinLength:      500,
		MinWords:       80,
		MinLetterRatio: 0.4,
		MinUniqueRatio: 0.05,
		MinAvgWordLen:  3,
		MaxAvgWordLen:  12,
	}
	// AssetMentionThresholds are looser for short snippets.
	AssetMentionThresholds = Thresholds{
		MinLength:      300,
		MinWords:       50,
		MinLetterRatio: 0.35,
		MinUniqueRatio: 0.05,
		MinAvgWordLen:  3,
		MaxAvgWordLen:  12,
	}
)

var wordRe = regexp.MustCompile(`\b\w+\b`)

// uniqueWindow bounds the distinct-character sample; over a whole long
// document the ratio would fall below any useful threshold.
const uniqueWindow = 500

// ReadabilityStats are the measurements IsReadable decides on.
type ReadabilityStats struct {
	Length      int     `json:"length"`
	Words       int     `json:"words"`
	LetterRatio float64 `json:"letterRatio"`
	UniqueRatio float64 `json:"uniqueRatio"`
	AvgWordLen  float64 `json:"avgWordLen"`
}

func Stats(text string) ReadabilityStats {
	length := utf8.RuneCountInString(text)
	if length == 0 {
		return ReadabilityStats{}
	}

	letters, seen := 0, 0
	distinct := make(map[rune]struct{})
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
		if seen < uniqueWindow {
			distinct[r] = struct{}{}
			seen++
		}
	}

	words := wordRe.FindAllString(text, -1)
	wordChars := 0
	for _, w := range words {
		wordChars += utf8.RuneCountInString(w)
	}
	avg := 0.0
	if len(words) > 0 {
		avg = float64(wordChars) / float64(len(words))
	}

	return ReadabilityStats{
		Length:      length,
		Words:       len(words),
		LetterRatio: float64(letters) / float64(length),
		UniqueRatio: float64(len(distinct)) / float64(seen),
		AvgWordLen:  avg,
	}
}

// IsReadable reports whether extracted text looks like prose rather than
// extraction garbage. All conditions must hold.
func IsReadable(text string, t Thresholds) bool {
	return t.Pass(Stats(text))
}

func (t Thresholds) Pass(s ReadabilityStats) bool {
	if s.Length == 0 {
		return false
	}
	if s.Length < t.MinLength && s.Words < t.MinWords {
		return false
	}
	return s.LetterRatio >= t.MinLetterRatio &&
		s.UniqueRatio >= t.MinUniqueRatio &&
		s.AvgWordLen >= t.MinAvgWordLen &&
		s.AvgWordLen <= t.MaxAvgWordLen
}
