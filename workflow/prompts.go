package workflow

import (
	"fmt"
	"strings"

	"github.com/c360studio/contentfactory/generate"
)

// maxDocumentChars bounds how much source text goes into a single prompt.
const maxDocumentChars = 12000

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "\n[...]"
}

func knowledgePrompt(document string, topics []string) string {
	return fmt.Sprintf(`You are preparing training material for IT apprentices.

Summarize the key professional knowledge in the following source document.
For each topic, capture the core concepts, typical pitfalls, and one concrete
workplace example. Topics to cover:
%s

Source document:
%s`, bulletList(topics), truncate(document, maxDocumentChars))
}

func useCasePrompt(spec generate.PassSpec, knowledge string) string {
	var b strings.Builder
	if spec.First {
		b.WriteString(`Write realistic workplace use cases for IT apprentice training.
Invent one company and one project and keep them throughout.
Format each unit exactly as:

PROBLEM <n>: <description of the situation>
SOLUTION <n>: <step-by-step resolution>

`)
	} else {
		b.WriteString("Continue the existing set of use cases. Do not start over.\n")
		b.WriteString(spec.Preamble)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Create use cases %d through %d, one per topic:\n%s\n",
		spec.Start, spec.End, bulletList(spec.Topics))
	if knowledge != "" {
		b.WriteString("\nBase them on this knowledge summary:\n")
		b.WriteString(truncate(knowledge, maxDocumentChars/2))
	}
	return b.String()
}

func quizPrompt(spec generate.PassSpec, knowledge string) string {
	var b strings.Builder
	if spec.First {
		b.WriteString(`Write a quiz for IT apprentice training. Format each unit exactly as:

Question <n>: <question text>
A) ... B) ... C) ... D) ...
Correct: <letter>, <one-sentence explanation>

`)
	} else {
		b.WriteString("Continue the existing quiz. Do not restart the numbering explanation or the intro.\n")
		b.WriteString(spec.Preamble)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Write questions %d through %d covering:\n%s\n",
		spec.Start, spec.End, bulletList(spec.Topics))
	if knowledge != "" {
		b.WriteString("\nGround the questions in this knowledge summary:\n")
		b.WriteString(truncate(knowledge, maxDocumentChars/2))
	}
	return b.String()
}

func scriptPrompt(spec generate.PassSpec, useCases string) string {
	var b strings.Builder
	if spec.First {
		b.WriteString(`Write a trainer script for a classroom session. Format each unit exactly as:

Slide <n>: <title>
<speaker notes: what the trainer says and does>

`)
	} else {
		b.WriteString("Continue the existing trainer script seamlessly.\n")
		b.WriteString(spec.Preamble)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Write slides %d through %d covering:\n%s\n",
		spec.Start, spec.End, bulletList(spec.Topics))
	if useCases != "" {
		b.WriteString("\nReference these use cases where they fit:\n")
		b.WriteString(truncate(useCases, maxDocumentChars/2))
	}
	return b.String()
}

func reviewPrompt(full string) string {
	return fmt.Sprintf(`Review the following training material as a whole. Fix any
inconsistent names, broken numbering, or abrupt transitions between sections.
Return the complete corrected material, nothing else.

%s`, truncate(full, maxDocumentChars))
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}
