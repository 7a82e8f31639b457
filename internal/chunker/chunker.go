// Package chunker splits loaded text into overlapping passages sized for
// the embedding context window. Splitting is greedy on paragraph and
// sentence boundaries; when a chunk closes, the trailing overlap budget is
// replayed into the next chunk so local context survives the cut. Content
// is never reordered: chunks appear in source order and their
// non-overlapping spans concatenate back to the normalized input.
package chunker

import (
	"regexp"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/google/uuid"
)

// Tokens are approximated by whitespace-delimited words; the budget only
// needs to track the embedding window coarsely, exact BPE is a provider
// detail.
var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+\s*|[^.!?]+$`)

type Chunker struct {
	maxTokens     int
	overlapTokens int
}

func New(maxTokens, overlapTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	if overlapTokens >= maxTokens {
		overlapTokens = maxTokens / 4
	}
	return &Chunker{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
	}
}

// Split chunks the loaded segments of one document in a single pass.
// Segment boundaries (pages, sheets, chapters) always close the current
// chunk so no chunk spans two source positions.
func (c *Chunker) Split(docID, filename string, segments []entity.Segment) []entity.Chunk {
	var chunks []entity.Chunk
	ordinal := 0

	for _, seg := range segments {
		for _, piece := range c.splitText(seg.Text) {
			chunks = append(chunks, entity.Chunk{
				ID:         uuid.New().String(),
				DocumentID: docID,
				Filename:   filename,
				Ordinal:    ordinal,
				Text:       piece,
				Page:       seg.Page,
				Section:    seg.Section,
			})
			ordinal++
		}
	}

	return chunks
}

func (c *Chunker) splitText(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		pieces  []string
		current []string
		tokens  int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		pieces = append(pieces, strings.Join(current, " "))
		// Backtrack the overlap budget worth of trailing sentences into
		// the next chunk.
		current, tokens = c.overlapTail(current)
	}

	for _, sentence := range sentences {
		n := tokenCount(sentence)

		if n > c.maxTokens {
			// A single sentence over budget is force-split at the token
			// boundary rather than dropped.
			flush()
			current, tokens = nil, 0
			for _, window := range splitTokens(sentence, c.maxTokens) {
				pieces = append(pieces, window)
			}
			continue
		}

		if tokens+n > c.maxTokens {
			flush()
			// The overlap seed must not push the next chunk over budget:
			// shed its leading sentences until the new sentence fits.
			for len(current) > 0 && tokens+n > c.maxTokens {
				tokens -= tokenCount(current[0])
				current = current[1:]
			}
		}
		current = append(current, sentence)
		tokens += n
	}

	if len(current) > 0 {
		// The overlap seed alone carries no new content; emit only when
		// something beyond it accumulated.
		pieces = append(pieces, strings.Join(current, " "))
	}

	return dedupTrailingOverlap(pieces)
}

// overlapTail returns the trailing sentences of chunk whose combined token
// count fits the overlap budget, together with that count.
func (c *Chunker) overlapTail(chunk []string) ([]string, int) {
	if c.overlapTokens == 0 {
		return nil, 0
	}

	var tail []string
	tokens := 0
	for i := len(chunk) - 1; i >= 0; i-- {
		n := tokenCount(chunk[i])
		if tokens+n > c.overlapTokens {
			break
		}
		tail = append([]string{chunk[i]}, tail...)
		tokens += n
	}
	return tail, tokens
}

// dedupTrailingOverlap removes a final piece that is a pure overlap replay
// of the previous one (happens when input ends exactly on a chunk border).
func dedupTrailingOverlap(pieces []string) []string {
	n := len(pieces)
	if n >= 2 && strings.HasSuffix(pieces[n-2], pieces[n-1]) {
		return pieces[:n-1]
	}
	return pieces
}

func splitSentences(text string) []string {
	var sentences []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		for _, s := range sentenceRe.FindAllString(paragraph, -1) {
			s = strings.TrimSpace(s)
			if s != "" {
				sentences = append(sentences, s)
			}
		}
	}
	return sentences
}

func tokenCount(s string) int {
	return len(strings.Fields(s))
}

func splitTokens(s string, size int) []string {
	words := strings.Fields(s)
	var out []string
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}
