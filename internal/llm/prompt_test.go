package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func sampleSources() []domain.RankedSegment {
	return []domain.RankedSegment{
		{
			Segment: domain.Segment{
				DocumentID:   "d1",
				SegmentIndex: 0,
				Text:         "Revenue grew 12% in Q3.",
				Metadata:     domain.SegmentMetadata{FileName: "report.txt", Section: "paragraph 1"},
			},
			Score: 0.91,
		},
		{
			Segment: domain.Segment{
				DocumentID:   "d1",
				SegmentIndex: 1,
				Text:         "Operating costs stayed flat.",
				Metadata:     domain.SegmentMetadata{FileName: "report.txt", Section: "paragraph 2"},
			},
			Score: 0.44,
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Run("numbers sources with provenance", func(t *testing.T) {
		prompt := BuildPrompt("What was the revenue growth?", sampleSources(), nil)
		assert.Contains(t, prompt, "--- Source 1 (report.txt, paragraph 1) ---")
		assert.Contains(t, prompt, "--- Source 2 (report.txt, paragraph 2) ---")
		assert.Contains(t, prompt, "Revenue grew 12% in Q3.")
		assert.Contains(t, prompt, "Question: What was the revenue growth?")
	})

	t.Run("includes prior turns when present", func(t *testing.T) {
		turns := []domain.Turn{{Question: "Who wrote the report?", Answer: "The finance team."}}
		prompt := BuildPrompt("And the revenue?", sampleSources(), turns)
		assert.Contains(t, prompt, "Previous conversation:")
		assert.Contains(t, prompt, "Q: Who wrote the report?")
		assert.Contains(t, prompt, "A: The finance team.")
	})

	t.Run("question and context are recoverable", func(t *testing.T) {
		prompt := BuildPrompt("What was the revenue growth?", sampleSources(), nil)
		assert.Equal(t, "What was the revenue growth?", promptQuestion(prompt))
		ctx := promptContext(prompt)
		assert.Contains(t, ctx, "Revenue grew 12% in Q3.")
		assert.NotContains(t, ctx, "Question:")
	})
}

func TestExtractive(t *testing.T) {
	t.Run("answers from the most relevant source sentence", func(t *testing.T) {
		e := NewExtractive(1)
		prompt := BuildPrompt("What was the revenue growth?", sampleSources(), nil)
		answer, err := e.Complete(context.Background(), prompt)
		require.NoError(t, err)
		assert.Contains(t, answer, "12%")
		assert.NotContains(t, answer, "--- Source")
	})

	t.Run("empty context yields a fallback answer", func(t *testing.T) {
		e := NewExtractive(2)
		prompt := BuildPrompt("Anything?", nil, nil)
		answer, err := e.Complete(context.Background(), prompt)
		require.NoError(t, err)
		assert.NotEmpty(t, answer)
	})
}
