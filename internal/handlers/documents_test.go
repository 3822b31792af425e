package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"studyhall-ai/internal/ingest"
	"studyhall-ai/internal/storage"
)

func setupDocumentsRouter(t *testing.T) (*chi.Mux, *sql.DB) {
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

	docRepo := storage.NewDocumentRepo(db)
	pipeline := ingest.NewPipeline(docRepo, storage.NewChunkRepo(db), nil, nil, "", 0, 0)
	handler := NewDocumentsHandler(pipeline, docRepo)

	r := chi.NewRouter()
	r.Post("/api/documents", handler.Upload)
	r.Get("/api/documents", handler.List)
	r.Delete("/api/documents/{documentID}", handler.Delete)
	return r, db
}

func uploadDocument(t *testing.T, router *chi.Mux, userID, filename, content string) DocumentResponse {
	t.Helper()

	body, _ := json.Marshal(UploadRequest{UserID: userID, Filename: filename, Content: content})
	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp DocumentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	return resp
}

func TestDocumentsHandler_Upload(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	resp := uploadDocument(t, router, "alice", "biology.txt", "Photosynthesis converts light into energy.")

	if resp.ID == "" {
		t.Error("upload response missing document ID")
	}
	if resp.Filename != "biology.txt" {
		t.Errorf("filename = %q", resp.Filename)
	}
	if resp.ChunkCount != 1 {
		t.Errorf("chunk_count = %d, want 1", resp.ChunkCount)
	}
}

func TestDocumentsHandler_Upload_MissingFields(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing content", `{"user_id": "alice", "filename": "a.txt"}`},
		{"missing filename", `{"user_id": "alice", "content": "text"}`},
		{"missing user_id", `{"filename": "a.txt", "content": "text"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDocumentsHandler_List(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	uploadDocument(t, router, "alice", "biology.txt", "Photosynthesis converts light into energy.")
	uploadDocument(t, router, "alice", "algebra.txt", "A linear equation has degree one.")
	uploadDocument(t, router, "bob", "chemistry.txt", "Atoms bond to form molecules.")

	req := httptest.NewRequest(http.MethodGet, "/api/documents?user_id=alice", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var docs []DocumentResponse
	if err := json.NewDecoder(rec.Body).Decode(&docs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("listed %d documents, want 2", len(docs))
	}
}

func TestDocumentsHandler_List_RequiresUserID(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDocumentsHandler_Delete(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	doc := uploadDocument(t, router, "alice", "biology.txt", "Photosynthesis converts light into energy.")

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+doc.ID+"?user_id=alice", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Listing afterwards shows nothing.
	listReq := httptest.NewRequest(http.MethodGet, "/api/documents?user_id=alice", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)

	var docs []DocumentResponse
	if err := json.NewDecoder(listRec.Body).Decode(&docs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("listed %d documents after delete, want 0", len(docs))
	}
}

func TestDocumentsHandler_Delete_WrongOwner(t *testing.T) {
	router, _ := setupDocumentsRouter(t)

	doc := uploadDocument(t, router, "alice", "biology.txt", "Photosynthesis converts light into energy.")

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+doc.ID+"?user_id=bob", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDocumentsHandler_Reupload(t *testing.T) {
	router, db := setupDocumentsRouter(t)

	uploadDocument(t, router, "alice", "notes.txt", "Original notes.")
	second := uploadDocument(t, router, "alice", "notes.txt", "Revised notes.")

	docs, err := storage.NewDocumentRepo(db).ListByUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("have %d documents after re-upload, want 1", len(docs))
	}
	if docs[0].ID != second.ID {
		t.Errorf("surviving document = %s, want %s", docs[0].ID, second.ID)
	}
}
