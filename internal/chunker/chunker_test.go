package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ") + "."
}

func TestSplit_Empty(t *testing.T) {
	c := New(50, 10)

	assert.Empty(t, c.Split("doc-1", "a.txt", nil))
	assert.Empty(t, c.Split("doc-1", "a.txt", []entity.Segment{{Text: "   "}}))
}

func TestSplit_SingleSmallSegment(t *testing.T) {
	c := New(50, 10)

	chunks := c.Split("doc-1", "a.txt", []entity.Segment{{Text: "A short sentence.", Page: 1}})

	require.Len(t, chunks, 1)
	assert.Equal(t, "A short sentence.", strings.TrimSpace(chunks[0].Text))
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, "a.txt", chunks[0].Filename)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.NotEmpty(t, chunks[0].ID)
}

func TestSplit_RespectsTokenBudget(t *testing.T) {
	c := New(30, 5)

	var sentences []string
	for i := 0; i < 20; i++ {
		sentences = append(sentences, words(10))
	}
	text := strings.Join(sentences, " ")

	chunks := c.Split("doc-1", "a.txt", []entity.Segment{{Text: text}})

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(ch.Text)), 30,
			"chunk exceeds token budget: %q", ch.Text)
	}
}

func TestSplit_OverlapSeedNeverBreaksBudget(t *testing.T) {
	c := New(50, 10)

	// Two short sentences fit the overlap budget whole; a near-budget
	// sentence after them must not ride on top of the replayed tail.
	text := words(5) + " " + words(5) + " " + words(48)

	chunks := c.Split("doc-1", "a.txt", []entity.Segment{{Text: text}})

	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(ch.Text)), 50,
			"chunk %d exceeds token budget", i)
	}
	assert.Contains(t, chunks[len(chunks)-1].Text, "word47")
}

func TestSplit_OrdinalsAreSequential(t *testing.T) {
	c := New(20, 4)

	segments := []entity.Segment{
		{Text: words(50), Page: 1},
		{Text: words(50), Page: 2},
	}

	chunks := c.Split("doc-1", "a.pdf", segments)

	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
	}
}

func TestSplit_SegmentBoundaryClosesChunk(t *testing.T) {
	c := New(100, 10)

	segments := []entity.Segment{
		{Text: "Page one text.", Page: 1},
		{Text: "Page two text.", Page: 2},
	}

	chunks := c.Split("doc-1", "a.pdf", segments)

	// Both segments fit one budget, but a chunk never spans two pages.
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 2, chunks[1].Page)
	assert.NotContains(t, chunks[0].Text, "Page two")
}

func TestSplit_OverlapCarriesContext(t *testing.T) {
	c := New(12, 4)

	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, fmt.Sprintf("sent%d alpha beta gamma.", i))
	}
	chunks := c.Split("doc-1", "a.txt", []entity.Segment{{Text: strings.Join(sentences, " ")}})

	require.Greater(t, len(chunks), 1)

	// Each chunk after the first starts with material from its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		require.NotEmpty(t, cur)
		assert.Contains(t, prev, cur[0], "chunk %d does not overlap its predecessor", i)
	}
}

func TestSplit_OversizedSentenceIsForceSplit(t *testing.T) {
	c := New(10, 2)

	// One "sentence" of 50 words with no terminal punctuation.
	text := strings.TrimSuffix(words(50), ".")

	chunks := c.Split("doc-1", "a.txt", []entity.Segment{{Text: text}})

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(ch.Text)), 10)
	}
}

func TestSplit_ContentIsPreservedInOrder(t *testing.T) {
	c := New(15, 0)

	text := words(60)
	chunks := c.Split("doc-1", "a.txt", []entity.Segment{{Text: text}})

	// With zero overlap the chunks concatenate back to the input.
	var rebuilt []string
	for _, ch := range chunks {
		rebuilt = append(rebuilt, strings.Fields(ch.Text)...)
	}
	assert.Equal(t, strings.Fields(text), rebuilt)
}

func TestNew_ClampsInvalidConfig(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, 400, c.maxTokens)
	assert.Equal(t, 0, c.overlapTokens)

	c = New(100, 200)
	assert.Equal(t, 25, c.overlapTokens)
}
