package ai

import (
	"regexp"
	"sort"
	"strings"
)

const defaultMaxKeywords = 10

// FrequencyKeywordExtractor ranks tokens by frequency (stopwords filtered)
// and returns the top scorers as keyword metadata. It is a pure function of
// its input and never fails: empty input yields an empty list.
type FrequencyKeywordExtractor struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
	maxKeywords  int
}

var _ KeywordExtractor = (*FrequencyKeywordExtractor)(nil)

// NewKeywordExtractor creates a frequency-based keyword extractor.
func NewKeywordExtractor() *FrequencyKeywordExtractor {
	return &FrequencyKeywordExtractor{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
		maxKeywords:  defaultMaxKeywords,
	}
}

// ExtractKeywords returns up to maxKeywords keywords for text, ordered by
// descending frequency with ties broken alphabetically for determinism.
func (e *FrequencyKeywordExtractor) ExtractKeywords(text string) []string {
	freq := map[string]int{}
	for _, tok := range e.tokens(text) {
		if _, ok := e.stopwords[tok]; ok {
			continue
		}
		// Single letters carry no keyword signal
		if len(tok) < 2 {
			continue
		}
		freq[tok]++
	}

	keywords := make([]string, 0, len(freq))
	for tok := range freq {
		keywords = append(keywords, tok)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if freq[keywords[i]] != freq[keywords[j]] {
			return freq[keywords[i]] > freq[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > e.maxKeywords {
		keywords = keywords[:e.maxKeywords]
	}
	return keywords
}

func (e *FrequencyKeywordExtractor) tokens(text string) []string {
	lower := strings.ToLower(text)
	return e.tokenPattern.FindAllString(lower, -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "what", "which", "who", "whom", "how", "when", "where", "why", "not", "no", "nor", "do", "does", "did", "have", "has", "had", "i", "you", "he", "she", "we", "they", "me", "him", "her", "us", "them", "my", "your", "his", "its", "our", "their",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
