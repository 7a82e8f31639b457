package entity

import "time"

// Project maps a (user, project name) pair to its vector store collection.
// A project has exactly one active collection at a time; the collection id
// is deterministic from the pair and recorded at first ingestion together
// with the embedding provider identity that produced the collection's
// vectors.
type Project struct {
	User               string    `json:"user"`
	Name               string    `json:"name"`
	CollectionID       string    `json:"collection_id"`
	EmbeddingProvider  string    `json:"embedding_provider"`
	EmbeddingDimension int       `json:"embedding_dimension"`
	CreatedAt          time.Time `json:"created_at"`
}

// FileData is a raw uploaded file as received from the front end.
type FileData struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Segment is a piece of plain text produced by the document loader,
// carrying its position inside the source file. Page is 1-based and zero
// when the format has no page concept; Section names a sheet or chapter
// where applicable.
type Segment struct {
	Text    string
	Page    int
	Section string
}

// Chunk is a bounded span of source text stored with its embedding for
// retrieval. Every chunk belongs to exactly one project's collection.
type Chunk struct {
	ID         string
	DocumentID string
	Filename   string
	Ordinal    int
	Text       string
	Page       int
	Section    string
	Vector     []float32
}

// RetrievedChunk is a transient search result: chunk text plus source
// metadata and a relevance score. Not persisted.
type RetrievedChunk struct {
	Text     string  `json:"text"`
	Filename string  `json:"filename"`
	Page     int     `json:"page,omitempty"`
	Ordinal  int     `json:"ordinal"`
	Score    float64 `json:"score"`
}

// ConversationTurn is one (query, answer) pair within a conversation.
type ConversationTurn struct {
	Query     string    `json:"user_query"`
	Answer    string    `json:"chatbot_answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is the ordered chat history of one user/project thread.
// Turns are strictly ordered by creation time; the full ordered list is
// replayed as context for each new query.
type Conversation struct {
	ID        string             `json:"conversation_id"`
	User      string             `json:"user"`
	Project   string             `json:"project"`
	Turns     []ConversationTurn `json:"turns"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// FileIngestResult is the per-file outcome of an ingestion batch. A failed
// file never aborts its siblings.
type FileIngestResult struct {
	Filename   string
	ChunkCount int
	Err        error
}

// IngestReport aggregates per-file outcomes for one ingestion call.
type IngestReport struct {
	Project string
	Results []FileIngestResult
}

// Succeeded returns the number of files that ingested fully.
func (r *IngestReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// PromptMessage is one message of an assembled generation prompt.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt message roles, fixed by the generation API contract.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
