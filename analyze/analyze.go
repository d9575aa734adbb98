// Package analyze turns a source document into the inputs the generation
// pipeline needs: a topic list, a complexity score, and a suggested content
// type. The default analyzer is deliberately simple; richer NLP can be
// plugged in behind the Analyzer interface.
package analyze

import (
	"regexp"
	"sort"
	"strings"
)

// Analysis is the output of document analysis.
type Analysis struct {
	// Topics to generate content for, in document order.
	Topics []string `json:"topics"`

	// Complexity in [0,10]; higher means denser material that needs more
	// output per topic.
	Complexity float64 `json:"complexity"`

	// ContentType suggested from keyword presence ("use_cases", "quiz",
	// "trainer_script").
	ContentType string `json:"content_type"`

	WordCount int `json:"word_count"`
}

// Analyzer extracts generation inputs from a document.
type Analyzer interface {
	Analyze(document string) Analysis
}

// HeuristicAnalyzer derives topics from headings and list items, complexity
// from document size and term density, and content type from keyword
// presence.
type HeuristicAnalyzer struct {
	// MaxTopics caps the topic list. 0 means the default of 12.
	MaxTopics int
}

const defaultMaxTopics = 12

var (
	headingPattern = regexp.MustCompile(`(?m)^#{1,3}\s+(.{3,80})\s*$`)
	listPattern    = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+(.{3,80})\s*$`)

	// Terms whose presence hints at denser technical material.
	technicalTerms = []string{
		"architecture", "protocol", "algorithm", "database", "concurrency",
		"transaction", "deployment", "encryption", "interface", "migration",
		"normalization", "replication", "authentication",
	}

	contentTypeHints = []struct {
		contentType string
		keywords    []string
	}{
		{"quiz", []string{"quiz", "assessment", "multiple choice", "exam question"}},
		{"trainer_script", []string{"trainer script", "training session", "slide", "lesson plan"}},
		{"use_cases", []string{"use case", "scenario", "case study"}},
	}
)

// Analyze implements Analyzer.
func (a HeuristicAnalyzer) Analyze(document string) Analysis {
	maxTopics := a.MaxTopics
	if maxTopics <= 0 {
		maxTopics = defaultMaxTopics
	}

	topics := extractTopics(document, maxTopics)
	words := len(strings.Fields(document))

	return Analysis{
		Topics:      topics,
		Complexity:  complexityOf(document, words),
		ContentType: DetectContentType(document),
		WordCount:   words,
	}
}

// DetectContentType maps keyword presence to a content type, defaulting to
// use cases when nothing matches.
func DetectContentType(document string) string {
	lower := strings.ToLower(document)
	for _, hint := range contentTypeHints {
		for _, kw := range hint.keywords {
			if strings.Contains(lower, kw) {
				return hint.contentType
			}
		}
	}
	return "use_cases"
}

func extractTopics(document string, maxTopics int) []string {
	var topics []string
	seen := make(map[string]bool)

	add := func(raw string) {
		topic := strings.TrimSpace(strings.Trim(raw, "#*-: "))
		key := strings.ToLower(topic)
		if topic == "" || seen[key] {
			return
		}
		seen[key] = true
		topics = append(topics, topic)
	}

	for _, m := range headingPattern.FindAllStringSubmatch(document, -1) {
		add(m[1])
	}
	if len(topics) < 3 {
		for _, m := range listPattern.FindAllStringSubmatch(document, -1) {
			add(m[1])
		}
	}
	if len(topics) == 0 {
		topics = frequentTerms(document, maxTopics)
	}
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics
}

// frequentTerms is the fallback for unstructured documents: the most common
// capitalized words that are not sentence starters.
func frequentTerms(document string, maxTopics int) []string {
	counts := make(map[string]int)
	prevEndsSentence := true
	for _, word := range strings.Fields(document) {
		trimmed := strings.Trim(word, `.,;:!?()"'`)
		if len(trimmed) >= 4 && !prevEndsSentence && trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
			counts[trimmed]++
		}
		prevEndsSentence = strings.ContainsAny(word, ".!?")
	}

	terms := make([]string, 0, len(counts))
	for term, n := range counts {
		if n >= 2 {
			terms = append(terms, term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxTopics {
		terms = terms[:maxTopics]
	}
	return terms
}

func complexityOf(document string, words int) float64 {
	lower := strings.ToLower(document)

	// Size contributes up to 5 points, term density the other 5.
	size := float64(words) / 400
	if size > 5 {
		size = 5
	}

	density := 0.0
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			density++
		}
	}
	density = density / float64(len(technicalTerms)) * 5
	if density > 5 {
		density = 5
	}

	score := size + density
	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}
	return score
}
