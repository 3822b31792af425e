package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyhall-ai/internal/storage"
)

func setupConversationsRouter(t *testing.T) (*chi.Mux, *storage.ConversationRepo) {
	t.Helper()

	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	convRepo := storage.NewConversationRepo(db)
	handler := NewConversationsHandler(convRepo)

	r := chi.NewRouter()
	r.Get("/api/conversations", handler.List)
	r.Get("/api/conversations/{conversationID}/messages", handler.Messages)
	return r, convRepo
}

func createConversation(t *testing.T, repo *storage.ConversationRepo, userID, subjectID string) *storage.ConversationRecord {
	t.Helper()

	conv := &storage.ConversationRecord{ID: uuid.NewString(), UserID: userID, SubjectID: subjectID}
	if err := repo.Create(context.Background(), conv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return conv
}

func TestConversationsHandler_List(t *testing.T) {
	router, repo := setupConversationsRouter(t)

	createConversation(t, repo, "alice", "biology")
	createConversation(t, repo, "alice", "")
	createConversation(t, repo, "bob", "history")

	req := httptest.NewRequest(http.MethodGet, "/api/conversations?user_id=alice", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var convs []ConversationResponse
	if err := json.NewDecoder(rec.Body).Decode(&convs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(convs) != 2 {
		t.Errorf("listed %d conversations, want 2", len(convs))
	}
}

func TestConversationsHandler_List_RequiresUserID(t *testing.T) {
	router, _ := setupConversationsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestConversationsHandler_Messages(t *testing.T) {
	router, repo := setupConversationsRouter(t)

	conv := createConversation(t, repo, "alice", "")
	citations := []string{"biology.md (chunk 1)"}
	if err := repo.AppendExchange(context.Background(), conv.ID, "What is photosynthesis?", "It converts light into energy.", citations); err != nil {
		t.Fatalf("AppendExchange() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/"+conv.ID+"/messages", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var messages []MessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&messages); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Role != storage.RoleUser || messages[1].Role != storage.RoleAssistant {
		t.Errorf("roles = %s, %s", messages[0].Role, messages[1].Role)
	}
	if len(messages[1].Citations) != 1 || messages[1].Citations[0] != citations[0] {
		t.Errorf("assistant citations = %v, want %v", messages[1].Citations, citations)
	}
}

func TestConversationsHandler_Messages_Limit(t *testing.T) {
	router, repo := setupConversationsRouter(t)

	conv := createConversation(t, repo, "alice", "")
	for _, q := range []string{"q1", "q2", "q3"} {
		if err := repo.AppendExchange(context.Background(), conv.ID, q, "a-"+q, nil); err != nil {
			t.Fatalf("AppendExchange() error = %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/"+conv.ID+"/messages?limit=2", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var messages []MessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&messages); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Content != "q3" || messages[1].Content != "a-q3" {
		t.Errorf("limited history = %q, %q; want the most recent exchange", messages[0].Content, messages[1].Content)
	}
}

func TestConversationsHandler_Messages_InvalidLimit(t *testing.T) {
	router, repo := setupConversationsRouter(t)
	conv := createConversation(t, repo, "alice", "")

	for _, limit := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/conversations/"+conv.ID+"/messages?limit="+limit, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want %d", limit, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestConversationsHandler_Messages_UnknownConversation(t *testing.T) {
	router, _ := setupConversationsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/no-such-id/messages", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
