package storage

import "time"

// DocumentRecord represents an uploaded document owned by a user.
type DocumentRecord struct {
	ID         string // UUID
	UserID     string
	Filename   string
	ChunkCount int
	CreatedAt  time.Time
}

// ChunkRecord represents one retrieval unit derived from a document.
// Chunks are immutable once created and are deleted with their parent document.
type ChunkRecord struct {
	ID         string // UUID (doubles as the vector point ID in vector mode)
	DocumentID string // Foreign key to documents.id
	UserID     string // Denormalized owner, the retrieval access path
	Filename   string // Denormalized for citation rendering
	ChunkIndex int    // Position within the document (starts at 0)
	Text       string
	CreatedAt  time.Time
}

// ConversationRecord represents a chat conversation.
type ConversationRecord struct {
	ID        string // UUID
	UserID    string
	SubjectID string // Optional subject scope, empty when unscoped
	CreatedAt time.Time
}

// MessageRecord represents a single message within a conversation.
// Messages are append-only; Seq is strictly increasing per conversation
// so history retrieval order is deterministic.
type MessageRecord struct {
	ID             string // UUID
	ConversationID string
	Seq            int
	Role           string // "user" or "assistant"
	Content        string
	Citations      []string // Only set on assistant messages
	CreatedAt      time.Time
}

// Message roles stored in the messages table.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
