package generate

import (
	"regexp"
	"strings"
)

// PassContext carries the stable entities a generation run must keep
// consistent across passes. Generation calls share no memory, so identity
// continuity has to be threaded through the prompts explicitly. Fields are
// first-wins: once set by an early pass they are never overwritten.
type PassContext struct {
	Organization string
	Project      string
	Protagonist  string
}

// IsZero reports whether no entity has been established yet.
func (c PassContext) IsZero() bool {
	return c.Organization == "" && c.Project == "" && c.Protagonist == ""
}

// Merge returns c with empty fields filled from partial. Existing values
// always win.
func (c PassContext) Merge(partial PassContext) PassContext {
	if c.Organization == "" {
		c.Organization = partial.Organization
	}
	if c.Project == "" {
		c.Project = partial.Project
	}
	if c.Protagonist == "" {
		c.Protagonist = partial.Protagonist
	}
	return c
}

// Inject substitutes established entities into a prompt template. Templates
// use {{organization}}, {{project}} and {{protagonist}} placeholders; a
// placeholder whose entity is still unknown is removed.
func (c PassContext) Inject(template string) string {
	r := strings.NewReplacer(
		"{{organization}}", c.Organization,
		"{{project}}", c.Project,
		"{{protagonist}}", c.Protagonist,
	)
	return r.Replace(template)
}

// Preamble renders the established entities as prompt instructions for
// continuation passes. Returns "" when nothing has been established.
func (c PassContext) Preamble() string {
	var b strings.Builder
	if c.Organization != "" {
		b.WriteString("The company is called \"" + c.Organization + "\". Use exactly this name.\n")
	}
	if c.Project != "" {
		b.WriteString("The project is called \"" + c.Project + "\". Use exactly this name.\n")
	}
	if c.Protagonist != "" {
		b.WriteString("The main character is " + c.Protagonist + ". Keep this person throughout.\n")
	}
	return b.String()
}

// EntityExtractor pulls stable entities out of generated text. The regex
// implementation is the default; tests and callers with richer heuristics
// can swap it.
type EntityExtractor interface {
	Extract(text string) PassContext
}

// RegexExtractor extracts entities via a fixed set of pattern rules.
type RegexExtractor struct{}

var (
	orgPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?mi)^\s*(?:company|organization|firm)\s*:\s*"?([A-Z][\w&\-. ]{1,40}?)"?\s*$`),
		regexp.MustCompile(`\b([A-Z][\w&\-]+(?:\s[A-Z][\w&\-]+){0,2})\s(?:GmbH|AG|Inc\.?|Ltd\.?|LLC)\b`),
	}
	projectPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?mi)^\s*project\s*:\s*"?([A-Z][\w&\-. ]{1,40}?)"?\s*$`),
		regexp.MustCompile(`(?i)\bproject\s+"([^"\n]{2,40})"`),
	}
	protagonistPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?mi)^\s*(?:protagonist|trainer|developer)\s*:\s*([A-Z][\w\-]+(?:\s[A-Z][\w\-]+)?)\s*$`),
	}
)

// Extract applies the pattern rules and returns the first hit per field.
func (RegexExtractor) Extract(text string) PassContext {
	return PassContext{
		Organization: firstMatch(orgPatterns, text),
		Project:      firstMatch(projectPatterns, text),
		Protagonist:  firstMatch(protagonistPatterns, text),
	}
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
