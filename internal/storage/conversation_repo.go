package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ConversationStore defines the interface for conversation bookkeeping.
type ConversationStore interface {
	// Create inserts a conversation record. The record.ID must be set (UUID).
	Create(ctx context.Context, conv *ConversationRecord) error
	// Get gets a conversation by its ID. Returns ErrNotFound if not found.
	Get(ctx context.Context, id string) (*ConversationRecord, error)
	// AppendExchange writes one user message followed by one assistant message
	// with strictly increasing sequence numbers.
	AppendExchange(ctx context.Context, conversationID, userText, assistantText string, citations []string) error
	// History returns the limit most recent messages in chronological order.
	// limit <= 0 means no cap.
	History(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error)
	// ListByUser returns a user's conversations, newest first.
	ListByUser(ctx context.Context, userID string) ([]ConversationRecord, error)
}

// ConversationRepo provides methods for conversation and message operations.
// It implements the ConversationStore interface.
type ConversationRepo struct {
	db *sql.DB
}

// NewConversationRepo creates a new ConversationRepo.
func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Create inserts a conversation record.
func (r *ConversationRepo) Create(ctx context.Context, conv *ConversationRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id, subject_id) VALUES (?, ?, ?)",
		conv.ID, conv.UserID, conv.SubjectID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// Get gets a conversation by its ID. Returns ErrNotFound if not found.
func (r *ConversationRepo) Get(ctx context.Context, id string) (*ConversationRecord, error) {
	var conv ConversationRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, subject_id, created_at FROM conversations WHERE id = ?",
		id,
	).Scan(&conv.ID, &conv.UserID, &conv.SubjectID, &conv.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}

	return &conv, nil
}

// AppendExchange writes the user message and the assistant reply as two rows
// inside one transaction. Sequence numbers are allocated from the current
// maximum so ordering is deterministic even when wall clocks collide.
func (r *ConversationRepo) AppendExchange(ctx context.Context, conversationID, userText, assistantText string, citations []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var maxSeq int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM messages WHERE conversation_id = ?",
		conversationID,
	).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("failed to read message sequence: %w", err)
	}

	if citations == nil {
		citations = []string{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("failed to encode citations: %w", err)
	}

	insert := "INSERT INTO messages (id, conversation_id, seq, role, content, citations) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := tx.ExecContext(ctx, insert,
		newMessageID(), conversationID, maxSeq+1, RoleUser, userText, "[]",
	); err != nil {
		return fmt.Errorf("failed to insert user message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert,
		newMessageID(), conversationID, maxSeq+2, RoleAssistant, assistantText, string(citationsJSON),
	); err != nil {
		return fmt.Errorf("failed to insert assistant message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exchange: %w", err)
	}
	return nil
}

// newMessageID returns a fresh message UUID.
func newMessageID() string {
	return uuid.NewString()
}

// History returns the limit most recent messages in chronological order.
func (r *ConversationRepo) History(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error) {
	query := "SELECT id, conversation_id, seq, role, content, citations, created_at FROM messages WHERE conversation_id = ? ORDER BY seq"
	args := []any{conversationID}
	if limit > 0 {
		// Take the tail by seq, then re-sort ascending.
		query = `SELECT id, conversation_id, seq, role, content, citations, created_at FROM (
			SELECT id, conversation_id, seq, role, content, citations, created_at
			FROM messages WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var messages []MessageRecord
	for rows.Next() {
		var m MessageRecord
		var citationsJSON string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Seq, &m.Role, &m.Content, &citationsJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(citationsJSON), &m.Citations); err != nil {
			return nil, fmt.Errorf("failed to decode citations: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return messages, nil
}

// ListByUser returns a user's conversations, newest first.
func (r *ConversationRepo) ListByUser(ctx context.Context, userID string) ([]ConversationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, subject_id, created_at FROM conversations WHERE user_id = ? ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var convs []ConversationRecord
	for rows.Next() {
		var conv ConversationRecord
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.SubjectID, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return convs, nil
}
