package analyze

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeStructuredDocument(t *testing.T) {
	doc := `# Warehouse Management Basics

## Goods Intake
Scanning and booking arriving pallets.

## Routing
Zone assignment over the conveyor network architecture and its database.

## Picking
Batch picking with concurrency in the protocol layer.
`

	got := HeuristicAnalyzer{}.Analyze(doc)

	assert.Equal(t, []string{"Warehouse Management Basics", "Goods Intake", "Routing", "Picking"}, got.Topics)
	assert.Greater(t, got.Complexity, 0.0)
	assert.LessOrEqual(t, got.Complexity, 10.0)
	assert.Equal(t, "use_cases", got.ContentType)
	assert.Greater(t, got.WordCount, 0)
}

func TestAnalyzeFallsBackToListItems(t *testing.T) {
	doc := "Agenda for the session:\n- Goods intake\n- Conveyor routing\n- Batch picking\n"

	got := HeuristicAnalyzer{}.Analyze(doc)

	assert.Equal(t, []string{"Goods intake", "Conveyor routing", "Batch picking"}, got.Topics)
}

func TestAnalyzeCapsTopics(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("## Topic number ")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString("\n")
	}

	got := HeuristicAnalyzer{MaxTopics: 5}.Analyze(b.String())
	assert.Len(t, got.Topics, 5)
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	got := HeuristicAnalyzer{}.Analyze("")

	assert.Empty(t, got.Topics)
	assert.Equal(t, 0, got.WordCount)
	assert.GreaterOrEqual(t, got.Complexity, 0.0)
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{"Prepare a quiz with multiple choice questions.", "quiz"},
		{"Outline for the training session, slide by slide.", "trainer_script"},
		{"Write a case study about deployments.", "use_cases"},
		{"Nothing special here.", "use_cases"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectContentType(tt.doc), tt.doc)
	}
}

func TestComplexityScalesWithDensity(t *testing.T) {
	plain := strings.Repeat("simple words about nothing in particular ", 50)
	dense := plain + " architecture protocol algorithm database concurrency transaction encryption"

	a := HeuristicAnalyzer{}
	assert.Greater(t, a.Analyze(dense).Complexity, a.Analyze(plain).Complexity)
}
