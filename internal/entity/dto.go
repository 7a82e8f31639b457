package entity

import "mime/multipart"

// IngestRequest is the parsed upload payload: a project name plus one or
// more files. User identity is supplied separately by the auth collaborator.
type IngestRequest struct {
	Project string
	Files   []*multipart.FileHeader
}

// FileResultDTO is the wire form of one per-file ingestion outcome.
type FileResultDTO struct {
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IngestResponse is the batch report returned by the ingest endpoint.
type IngestResponse struct {
	Project string          `json:"project"`
	Results []FileResultDTO `json:"results"`
}

// ChatRequest is the query payload: free-text query, project name, and an
// optional conversation id to continue an existing thread.
type ChatRequest struct {
	Project        string `json:"project"`
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse carries the generated answer and the conversation id the
// turn was appended to (newly created when the request had none).
type ChatResponse struct {
	Answer         string           `json:"answer"`
	ConversationID string           `json:"conversation_id"`
	Sources        []RetrievedChunk `json:"sources,omitempty"`
}

// ConversationSummary is one conversation in the user's listing.
type ConversationSummary struct {
	ConversationID string             `json:"conversation_id"`
	Project        string             `json:"project"`
	Turns          []ConversationTurn `json:"turns"`
	UpdatedAt      string             `json:"timestamp"`
}

// ListConversationsResponse is the payload of GET /conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// DeleteProjectResponse is the payload of DELETE /projects/{project}.
type DeleteProjectResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the error payload shape shared by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
