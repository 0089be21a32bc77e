package llm

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// BuildPrompt assembles the completion prompt from the question, the
// ranked sources and prior conversation turns. Sources are numbered
// and delimited so provenance stays recoverable from the prompt text
// alone.
func BuildPrompt(question string, sources []domain.RankedSegment, turns []domain.Turn) string {
	var sb strings.Builder

	if len(turns) > 0 {
		sb.WriteString("Previous conversation:\n")
		for _, t := range turns {
			sb.WriteString("Q: ")
			sb.WriteString(t.Question)
			sb.WriteString("\nA: ")
			sb.WriteString(t.Answer)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Context:\n")
	for i, src := range sources {
		origin := src.Segment.Metadata.FileName
		if src.Segment.Metadata.Section != "" {
			origin += ", " + src.Segment.Metadata.Section
		}
		fmt.Fprintf(&sb, "--- Source %d (%s) ---\n%s\n", i+1, origin, src.Segment.Text)
	}

	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer based on the context above. Mention the source numbers you used.")
	return sb.String()
}

// promptQuestion recovers the question line from a prompt built by
// BuildPrompt.
func promptQuestion(prompt string) string {
	const marker = "\nQuestion: "
	i := strings.LastIndex(prompt, marker)
	if i < 0 {
		return ""
	}
	rest := prompt[i+len(marker):]
	if j := strings.Index(rest, "\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// promptContext recovers the delimited source texts from a prompt
// built by BuildPrompt.
func promptContext(prompt string) string {
	const start = "Context:\n"
	i := strings.Index(prompt, start)
	if i < 0 {
		return prompt
	}
	rest := prompt[i+len(start):]
	if j := strings.LastIndex(rest, "\nQuestion: "); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
