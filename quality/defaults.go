package quality

var commonForbidden = []string{"ChatGPT", "OpenAI", "as an AI"}

// DefaultExpectations returns the built-in expectations for a known content
// type. Unknown types get a permissive baseline with only the forbidden-term
// check.
func DefaultExpectations(contentType string) Expectations {
	switch contentType {
	case "use_cases":
		return Expectations{
			MinLength:        3500,
			TargetLength:     5000,
			RequiredSections: []string{"PROBLEM", "SOLUTION"},
			UnitPattern:      `(?i)\bPROBLEM\s+\d+`,
			MinUnits:         3,
			MaxUnits:         12,
			ForbiddenTerms:   commonForbidden,
		}
	case "quiz":
		return Expectations{
			MinLength:        2000,
			TargetLength:     3000,
			RequiredSections: []string{"Question"},
			UnitPattern:      `(?i)\bQuestion\s+\d+`,
			MinUnits:         5,
			MaxUnits:         30,
			ForbiddenTerms:   commonForbidden,
		}
	case "trainer_script":
		return Expectations{
			MinLength:        3000,
			TargetLength:     4500,
			RequiredSections: []string{"Slide"},
			UnitPattern:      `(?i)\bSlide\s+\d+`,
			MinUnits:         5,
			MaxUnits:         40,
			ForbiddenTerms:   commonForbidden,
		}
	default:
		return Expectations{
			MinLength:      100,
			ForbiddenTerms: commonForbidden,
		}
	}
}
