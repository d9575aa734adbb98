package generate

import (
	"regexp"
	"sort"
	"strconv"
)

// MarkerFamily is a class of sequential labels that must stay contiguous
// after passes are concatenated. Patterns within one family share a single
// numbering sequence: "PROBLEM n" and "SOLUTION n" are renumbered in
// lock-step because they refer to the same unit.
type MarkerFamily struct {
	Name string

	// Patterns each capture the marker number in group 1.
	Patterns []*regexp.Regexp
}

func defaultFamilies() []MarkerFamily {
	return []MarkerFamily{
		{Name: "problem", Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bPROBLEM\s+(\d+)`),
			regexp.MustCompile(`(?i)\bSOLUTION\s+(\d+)`),
		}},
		{Name: "use_case", Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bUSE\s+CASE\s+(\d+)`),
		}},
		{Name: "question", Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bQUESTION\s+(\d+)`),
		}},
		{Name: "slide", Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bSLIDE\s+(\d+)`),
		}},
	}
}

// defaultForbidden lists terms that must never appear in delivered content,
// replaced case-insensitively.
var defaultForbidden = []string{
	"ChatGPT",
	"OpenAI",
	"language model",
	"AI assistant",
	"as an AI",
}

// Normalizer rewrites batch output so sequential markers continue the global
// numbering instead of restarting per pass, and strips forbidden terms.
type Normalizer struct {
	families    []MarkerFamily
	forbidden   []*regexp.Regexp
	replacement string
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithFamilies replaces the default marker families.
func WithFamilies(families []MarkerFamily) NormalizerOption {
	return func(n *Normalizer) { n.families = families }
}

// WithForbidden replaces the default forbidden-term list.
func WithForbidden(terms []string, replacement string) NormalizerOption {
	return func(n *Normalizer) {
		n.forbidden = compileForbidden(terms)
		n.replacement = replacement
	}
}

// NewNormalizer returns a Normalizer with the default marker families and
// forbidden terms.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		families:    defaultFamilies(),
		forbidden:   compileForbidden(defaultForbidden),
		replacement: "the system",
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func compileForbidden(terms []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(terms))
	for _, t := range terms {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(t)))
	}
	return patterns
}

type markerHit struct {
	start, end int // byte range of the captured number
	old        int
}

// Normalize renumbers every marker family in text to the contiguous range
// starting at expectedStart, assigning new numbers by order of first
// appearance rather than by the numbers the text happens to contain. A pass
// that restarts its local numbering at 1 comes out continuing the global
// sequence. expectedEnd is the range the caller planned for; appearance
// order decides the mapping, so extra distinct markers simply run past it.
func (n *Normalizer) Normalize(text string, expectedStart, expectedEnd int) string {
	_ = expectedEnd
	for _, family := range n.families {
		text = renumber(text, family, expectedStart)
	}
	return n.stripForbidden(text)
}

// StripForbidden applies only the forbidden-term replacement.
func (n *Normalizer) StripForbidden(text string) string {
	return n.stripForbidden(text)
}

func (n *Normalizer) stripForbidden(text string) string {
	for _, p := range n.forbidden {
		text = p.ReplaceAllString(text, n.replacement)
	}
	return text
}

func renumber(text string, family MarkerFamily, start int) string {
	var hits []markerHit
	for _, p := range family.Patterns {
		for _, loc := range p.FindAllStringSubmatchIndex(text, -1) {
			old, err := strconv.Atoi(text[loc[2]:loc[3]])
			if err != nil {
				continue
			}
			hits = append(hits, markerHit{start: loc[2], end: loc[3], old: old})
		}
	}
	if len(hits) == 0 {
		return text
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	// New numbers follow first appearance, so a pass restarting at 1 maps
	// 1 -> start, 2 -> start+1 and so on.
	remap := make(map[int]int)
	next := start
	for _, h := range hits {
		if _, ok := remap[h.old]; !ok {
			remap[h.old] = next
			next++
		}
	}

	// Rewrite back to front so earlier edits don't shift later offsets.
	for i := len(hits) - 1; i >= 0; i-- {
		h := hits[i]
		text = text[:h.start] + strconv.Itoa(remap[h.old]) + text[h.end:]
	}
	return text
}
