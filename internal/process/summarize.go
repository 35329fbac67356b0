package process

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	minSummarySentences = 2
	maxSummarySentences = 4
	maxSummaryRunes     = 600
)

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// Summarize produces a short extractive summary: sentences are scored by the
// frequency of their content words across the whole text, and the top ones
// are emitted in original order. Deterministic by construction. Falls back
// to a truncated excerpt, then to the title.
func Summarize(bodyText, title string) string {
	sentences := splitSentences(bodyText)
	if len(sentences) == 0 {
		if t := strings.TrimSpace(title); t != "" {
			return t
		}
		return ""
	}
	if len(sentences) <= minSummarySentences {
		return truncateRunes(strings.Join(sentences, " "), maxSummaryRunes)
	}

	freq := wordFrequencies(bodyText)

	type ranked struct {
		index int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, s := range sentences {
		score := 0.0
		words := contentWords(s)
		for _, w := range words {
			score += freq[w]
		}
		if len(words) > 0 {
			score /= float64(len(words))
		}
		// Lead bias: earlier sentences win ties, news puts the point first.
		score += 1.0 / float64(i+2)
		scores[i] = ranked{index: i, score: score}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	n := maxSummarySentences
	if n > len(scores) {
		n = len(scores)
	}
	picked := scores[:n]
	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	var parts []string
	for _, r := range picked {
		parts = append(parts, sentences[r.index])
		if len(parts) >= minSummarySentences && runeLen(strings.Join(parts, " ")) > maxSummaryRunes {
			parts = parts[:len(parts)-1]
			break
		}
	}
	return truncateRunes(strings.Join(parts, " "), maxSummaryRunes)
}

func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	var sentences []string
	for _, s := range strings.Split(marked, "\x00") {
		s = strings.TrimSpace(s)
		// Drop fragments too short to carry meaning.
		if runeLen(s) >= 25 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func wordFrequencies(text string) map[string]float64 {
	freq := make(map[string]float64)
	for _, w := range contentWords(text) {
		freq[w]++
	}
	return freq
}

// stopWords covers English and German function words; the digest profile is
// bilingual so both are filtered from frequency scoring.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true,
	"this": true, "from": true, "have": true, "has": true, "are": true,
	"was": true, "were": true, "will": true, "but": true, "not": true,
	"der": true, "die": true, "das": true, "und": true, "ist": true,
	"von": true, "mit": true, "für": true, "auf": true, "ein": true,
	"eine": true, "den": true, "dem": true, "des": true, "sich": true,
}

func contentWords(text string) []string {
	var words []string
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if runeLen(w) <= 2 || stopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

func runeLen(s string) int { return len([]rune(s)) }

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	trimmed := string(runes[:max])
	// Prefer ending on a sentence boundary when one exists late enough.
	if idx := strings.LastIndex(trimmed, ". "); idx > max/2 {
		return trimmed[:idx+1]
	}
	return strings.TrimSpace(trimmed) + "..."
}
