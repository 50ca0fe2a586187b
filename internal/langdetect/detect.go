// Package langdetect implements local language detection for feedback
// text. Two independent signals are combined: a stopword-profile match
// and a script/character-profile match. The result is advisory only;
// downstream capability calls treat the detected code as a hint.
package langdetect

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lumenvoice/feedback-api/internal/domain"
)

// minDetectableRunes is the shortest text the detector will classify.
// Anything shorter resolves to the auto sentinel with zero confidence.
const minDetectableRunes = 3

// stopwords maps a language code to its most frequent function words.
// Profiles are intentionally small; the signal needs to separate
// languages, not to be exhaustive.
var stopwords = map[string][]string{
	"en": {"the", "and", "is", "was", "are", "to", "of", "in", "it", "for", "that", "this", "very", "not", "with", "my"},
	"id": {"yang", "dan", "di", "ini", "itu", "tidak", "dengan", "untuk", "saya", "dari", "ke", "ada", "sangat", "sudah", "karena"},
	"es": {"el", "la", "los", "las", "que", "de", "es", "muy", "no", "para", "con", "una", "por", "pero"},
	"fr": {"le", "la", "les", "de", "et", "est", "je", "pas", "pour", "une", "dans", "que", "sur"},
	"de": {"der", "die", "das", "und", "ist", "nicht", "mit", "für", "ich", "sehr", "ein", "eine", "war"},
	"pt": {"o", "os", "que", "de", "é", "muito", "não", "para", "com", "uma", "mas", "foi"},
	"it": {"il", "la", "di", "che", "è", "non", "per", "con", "una", "molto", "sono", "ma"},
	"nl": {"de", "het", "een", "en", "is", "niet", "met", "voor", "ik", "zeer", "was", "dat"},
}

// latinMarkers maps characters that are strongly indicative of a
// single Latin-script language.
var latinMarkers = map[rune]string{
	'ñ': "es", '¿': "es", '¡': "es",
	'ß': "de", 'ä': "de", 'ö': "de", 'ü': "de",
	'ã': "pt", 'õ': "pt",
	'ê': "fr", 'è': "fr", 'à': "fr", 'ù': "fr", 'œ': "fr",
}

// Detect returns the most likely ISO language code for the given text
// together with a confidence in [0, 1]. Texts under three runes, and
// texts neither signal can classify, resolve to the auto sentinel with
// zero confidence.
//
// When the two signals agree the confidence is boosted; when they
// disagree the script signal wins if it is confident (> 0.7), otherwise
// the stopword signal is used at a reduced confidence of 0.6.
func Detect(text string) (string, float64) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minDetectableRunes {
		return domain.LanguageAuto, 0.0
	}

	lang1, conf1 := stopwordSignal(trimmed)
	lang2, conf2 := scriptSignal(trimmed)

	switch {
	case lang1 == "" && lang2 == "":
		return domain.LanguageAuto, 0.0
	case lang1 == "":
		return lang2, conf2
	case lang2 == "":
		return lang1, conf1
	case lang1 == lang2:
		return lang1, math.Min(0.95, conf2+0.1)
	case conf2 > 0.7:
		return lang2, conf2
	default:
		return lang1, 0.6
	}
}

// stopwordSignal scores the text against each language's stopword
// profile and returns the best match. Confidence is the fraction of
// tokens matching the winning profile, capped below 1.
func stopwordSignal(text string) (string, float64) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return "", 0.0
	}

	bestLang := ""
	bestHits := 0
	for lang, words := range stopwords {
		profile := make(map[string]struct{}, len(words))
		for _, w := range words {
			profile[w] = struct{}{}
		}

		hits := 0
		for _, tok := range tokens {
			if _, ok := profile[tok]; ok {
				hits++
			}
		}

		if hits > bestHits || (hits == bestHits && hits > 0 && lang < bestLang) {
			bestHits = hits
			bestLang = lang
		}
	}

	if bestHits == 0 {
		return "", 0.0
	}

	conf := math.Min(0.9, float64(bestHits)/float64(len(tokens))*2)
	return bestLang, conf
}

// scriptSignal classifies by writing system. Non-Latin scripts map
// directly to a language with high confidence; Latin text is matched
// against single-language marker characters at moderate confidence.
func scriptSignal(text string) (string, float64) {
	counts := map[string]int{}
	total := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			counts["ru"]++
		case unicode.Is(unicode.Han, r):
			counts["zh"]++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			counts["ja"]++
		case unicode.Is(unicode.Hangul, r):
			counts["ko"]++
		case unicode.Is(unicode.Arabic, r):
			counts["ar"]++
		case unicode.Is(unicode.Thai, r):
			counts["th"]++
		case unicode.Is(unicode.Devanagari, r):
			counts["hi"]++
		}
	}

	if total == 0 {
		return "", 0.0
	}

	// Japanese text mixes Han and kana; kana presence decides.
	if counts["ja"] > 0 && counts["zh"] > 0 {
		counts["ja"] += counts["zh"]
		counts["zh"] = 0
	}

	for lang, n := range counts {
		if float64(n)/float64(total) > 0.5 {
			return lang, 0.9
		}
	}

	// Latin script: look for single-language marker characters.
	markerCounts := map[string]int{}
	for _, r := range strings.ToLower(text) {
		if lang, ok := latinMarkers[r]; ok {
			markerCounts[lang]++
		}
	}

	bestLang := ""
	bestCount := 0
	for lang, n := range markerCounts {
		if n > bestCount {
			bestCount = n
			bestLang = lang
		}
	}

	if bestLang == "" {
		return "", 0.0
	}
	return bestLang, 0.75
}

// tokenize lower-cases and splits the text on non-letter boundaries.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
