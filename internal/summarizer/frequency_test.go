package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequency(t *testing.T) {
	s := NewFrequency()

	t.Run("summary selects frequent-topic sentences in original order", func(t *testing.T) {
		text := "Alpha systems launched in March. The launch was a major success. Unrelated trivia fills this line. Alpha systems doubled their launch capacity."
		summary, err := s.Summarize(text, 2)
		require.NoError(t, err)
		assert.Contains(t, summary, "launch")
		// Selected sentences must appear in the same order as the source.
		prev := -1
		for _, sent := range strings.SplitAfter(summary, ".") {
			sent = strings.TrimSpace(sent)
			if sent == "" {
				continue
			}
			pos := strings.Index(text, sent)
			require.GreaterOrEqual(t, pos, 0)
			assert.Greater(t, pos, prev)
			prev = pos
		}
	})

	t.Run("short text passes through", func(t *testing.T) {
		summary, err := s.Summarize("No sentence terminator here", 3)
		require.NoError(t, err)
		assert.Equal(t, "No sentence terminator here", summary)
	})

	t.Run("extract favors sentences overlapping the question", func(t *testing.T) {
		text := "The office cafeteria reopens on Monday. Revenue grew 12% in Q3. Parking passes renew each January."
		answer := s.Extract("What was the revenue growth?", text, 1)
		assert.Equal(t, "Revenue grew 12% in Q3.", answer)
	})

	t.Run("extract without question falls back to frequency", func(t *testing.T) {
		text := "Budget planning starts in May. Budget planning involves every team. Cats sleep a lot."
		out := s.Extract("", text, 1)
		assert.Contains(t, out, "Budget planning")
	})
}
