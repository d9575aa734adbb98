// Package quality scores generated artifacts against structural
// expectations and grades them for routing.
package quality

import (
	"fmt"
	"regexp"
	"strings"
)

// Grade buckets a score for human consumption.
type Grade string

const (
	GradeExcellent        Grade = "EXCELLENT"
	GradeGood             Grade = "GOOD"
	GradeAcceptable       Grade = "ACCEPTABLE"
	GradeNeedsImprovement Grade = "NEEDS_IMPROVEMENT"
)

const (
	issuePenalty   = 25
	warningPenalty = 10
)

// Expectations describe what a complete artifact of one content type looks
// like.
type Expectations struct {
	// MinLength is the hard minimum in characters; shorter output is an
	// issue.
	MinLength int `yaml:"min_length"`

	// TargetLength is the soft minimum; output below it but above
	// MinLength is a warning. 0 disables the check.
	TargetLength int `yaml:"target_length"`

	// RequiredSections are structural headings that must be present
	// (case-insensitive). Each missing section is an issue.
	RequiredSections []string `yaml:"required_sections"`

	// UnitPattern counts the repeating unit, e.g. `(?i)\bPROBLEM\s+\d+`.
	// Empty disables the count check.
	UnitPattern string `yaml:"unit_pattern"`

	// MinUnits and MaxUnits bound the unit count; a count outside the
	// range is a warning.
	MinUnits int `yaml:"min_units"`
	MaxUnits int `yaml:"max_units"`

	// Topics drive the coverage check: coverage below 60% is a warning.
	Topics []string `yaml:"topics"`

	// ForbiddenTerms must not appear (case-insensitive substring). Each
	// hit is an issue.
	ForbiddenTerms []string `yaml:"forbidden_terms"`
}

// Report is the immutable outcome of one evaluation.
type Report struct {
	Score    int      `json:"score"`
	Passed   bool     `json:"passed"`
	Grade    Grade    `json:"grade"`
	Issues   []string `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	// Coverage is the matched-topic fraction in [0,1], 1 when no topics
	// were expected.
	Coverage float64 `json:"coverage"`
}

const coverageFloor = 0.6

// Evaluate scores artifact against exp. The score starts at 100 and loses 25
// per issue and 10 per warning, floored at 0. Passed is true iff there are
// no issues; warnings alone never fail an artifact.
func Evaluate(artifact string, exp Expectations) Report {
	var issues, warnings []string
	lower := strings.ToLower(artifact)

	if len(artifact) < exp.MinLength {
		issues = append(issues, fmt.Sprintf("content too short: %d chars, minimum %d", len(artifact), exp.MinLength))
	} else if exp.TargetLength > 0 && len(artifact) < exp.TargetLength {
		warnings = append(warnings, fmt.Sprintf("content below target length: %d chars, target %d", len(artifact), exp.TargetLength))
	}

	for _, section := range exp.RequiredSections {
		if !strings.Contains(lower, strings.ToLower(section)) {
			issues = append(issues, fmt.Sprintf("missing required section %q", section))
		}
	}

	if exp.UnitPattern != "" {
		if count, err := countUnits(artifact, exp.UnitPattern); err != nil {
			issues = append(issues, fmt.Sprintf("invalid unit pattern: %v", err))
		} else if count < exp.MinUnits || (exp.MaxUnits > 0 && count > exp.MaxUnits) {
			warnings = append(warnings, fmt.Sprintf("unit count %d outside expected range [%d,%d]", count, exp.MinUnits, exp.MaxUnits))
		}
	}

	coverage := topicCoverage(lower, exp.Topics)
	if len(exp.Topics) > 0 && coverage < coverageFloor {
		warnings = append(warnings, fmt.Sprintf("topic coverage %.0f%% below %.0f%%", coverage*100, coverageFloor*100))
	}

	for _, term := range exp.ForbiddenTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			issues = append(issues, fmt.Sprintf("contains forbidden term %q", term))
		}
	}

	score := 100 - issuePenalty*len(issues) - warningPenalty*len(warnings)
	if score < 0 {
		score = 0
	}

	return Report{
		Score:    score,
		Passed:   len(issues) == 0,
		Grade:    gradeFor(score),
		Issues:   issues,
		Warnings: warnings,
		Coverage: coverage,
	}
}

func gradeFor(score int) Grade {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 75:
		return GradeGood
	case score >= 60:
		return GradeAcceptable
	default:
		return GradeNeedsImprovement
	}
}

func countUnits(artifact, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}
	return len(re.FindAllStringIndex(artifact, -1)), nil
}

func topicCoverage(lowerArtifact string, topics []string) float64 {
	if len(topics) == 0 {
		return 1
	}
	matched := 0
	for _, topic := range topics {
		if strings.Contains(lowerArtifact, strings.ToLower(topic)) {
			matched++
		}
	}
	return float64(matched) / float64(len(topics))
}
