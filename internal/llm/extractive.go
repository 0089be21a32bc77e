package llm

import (
	"context"
	"strings"

	"docqa/internal/summarizer"
)

// Extractive answers by quoting the context sentences most relevant
// to the question. It needs no network or credentials, so it is the
// default completer for offline runs.
type Extractive struct {
	ranker       *summarizer.Frequency
	maxSentences int
}

func NewExtractive(maxSentences int) *Extractive {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Extractive{ranker: summarizer.NewFrequency(), maxSentences: maxSentences}
}

// Complete selects the context sentences closest to the question from
// a prompt built by BuildPrompt.
func (e *Extractive) Complete(_ context.Context, prompt string) (string, error) {
	question := promptQuestion(prompt)
	contextText := stripSourceDelimiters(promptContext(prompt))
	answer := e.ranker.Extract(question, contextText, e.maxSentences)
	if strings.TrimSpace(answer) == "" {
		return "The provided sources do not contain enough information to answer this question.", nil
	}
	return answer, nil
}

func stripSourceDelimiters(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--- Source ") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
