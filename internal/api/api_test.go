package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Hassanibrar632/Automated-BookGen/internal/bookgen"
	"github.com/Hassanibrar632/Automated-BookGen/internal/config"
	"github.com/Hassanibrar632/Automated-BookGen/internal/llm"
	"github.com/Hassanibrar632/Automated-BookGen/internal/store"
)

const testAPIKey = "test-api-key"

// outlineJSON is a minimal well-formed outline reply for the fake LLM.
const outlineJSON = `{
  "book_title": "Trail Cooking",
  "outline": [
    {"chapter_number": 1, "chapter_title": "Basics", "chapter_description": "Gear and staples.", "sections": ["Stoves", "Pantry"]},
    {"chapter_number": 2, "chapter_title": "Recipes", "chapter_description": "One-pot meals.", "sections": ["Breakfast", "Dinner"]}
  ]
}`

// fakeLLM answers every chat completion with replies in order, cycling
// the last one forever.
func fakeLLM(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()
	var calls int
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := replies[len(replies)-1]
		if calls < len(replies) {
			reply = replies[calls]
		}
		calls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func newTestServer(t *testing.T, llmURL string) (*httptest.Server, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := llm.NewClient("key", "test-model", 5*time.Second).WithBaseURL(llmURL)
	t.Cleanup(client.Close)

	gen := bookgen.NewGenerator(st, client, log, 3)
	runner := bookgen.NewRunner(gen, log, time.Hour, 4)
	runner.Start(context.Background())
	t.Cleanup(runner.Stop)

	cfg := config.Config{BookgenAPIKey: testAPIKey}
	srv := httptest.NewServer(NewServer(st, gen, runner, client, log, cfg))
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// waitForJob polls the job endpoint until it reaches a terminal status.
func waitForJob(t *testing.T, srvURL, jobID string) map[string]any {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		resp := doJSON(t, http.MethodGet, srvURL+"/api/jobs/"+jobID, nil)
		status := decodeBody(t, resp)
		switch status["status"] {
		case string(bookgen.StatusCompleted), string(bookgen.StatusPartial), string(bookgen.StatusFailed):
			return status
		}
		select {
		case <-deadline:
			t.Fatalf("job did not finish, last status %v", status["status"])
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuth_RejectsMissingAndBadKeys(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp, err := http.Get(srv.URL + "/api/books/x")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/books/x", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad key, got %d", resp.StatusCode)
	}
}

func TestCreateBook_JSONAndDuplicate(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/books", map[string]string{
		"title":        "Trail Cooking",
		"before_notes": "keep it practical",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["title"] != "Trail Cooking" {
		t.Errorf("unexpected title in response: %v", body["title"])
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/books", map[string]string{
		"title": "Trail Cooking",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate title, got %d", resp.StatusCode)
	}
}

func TestCreateBook_RequiresTitle(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/books", map[string]string{"title": "   "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateBook_MultipartNotesFile(t *testing.T) {
	srv, st := newTestServer(t, "http://127.0.0.1:0")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "Field Guide")
	fw, err := mw.CreateFormFile("notes", "notes.md")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(fw, "# Focus\n\nShort chapters, lots of diagrams.")
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/books", &buf)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST multipart: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	book, err := st.GetBook("Field Guide")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if !strings.Contains(book.BeforeNotes, "Short chapters") {
		t.Errorf("notes file content not stored: %q", book.BeforeNotes)
	}
	if strings.Contains(book.BeforeNotes, "#") {
		t.Errorf("markdown syntax leaked into notes: %q", book.BeforeNotes)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/books/missing", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateAndDeleteBook(t *testing.T) {
	srv, st := newTestServer(t, "http://127.0.0.1:0")

	if _, err := st.CreateBook("Edit Me", "v1"); err != nil {
		t.Fatalf("create book: %v", err)
	}

	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/books/Edit Me", map[string]string{
		"after_notes": "tighten chapter two",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	book, err := st.GetBook("Edit Me")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if book.AfterNotes != "tighten chapter two" {
		t.Errorf("after notes not updated: %q", book.AfterNotes)
	}

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/books/nope", map[string]string{
		"after_notes": "x",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 updating missing book, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/books/Edit Me", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	// Deleting again stays a no-op.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/books/Edit Me", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on repeat delete, got %d", resp.StatusCode)
	}
}

func TestGenerate_RequiresNotesForFreshRun(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/books/New Book/generate", map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without notes, got %d", resp.StatusCode)
	}
}

func TestGenerate_FullRunThroughAPI(t *testing.T) {
	llmSrv := fakeLLM(t, outlineJSON,
		"chapter text one", "summary one",
		"chapter text two", "summary two",
	)
	defer llmSrv.Close()
	srv, _ := newTestServer(t, llmSrv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/books/Trail Cooking/generate", map[string]any{
		"notes": "practical meals for backpackers",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatalf("missing job_id in response: %v", body)
	}

	if status := waitForJob(t, srv.URL, jobID); status["status"] != string(bookgen.StatusCompleted) {
		t.Fatalf("job ended %v: %v", status["status"], status["error"])
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/books/Trail Cooking", nil)
	view := decodeBody(t, resp)
	chapters, _ := view["outline"].([]any)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters in view, got %d", len(chapters))
	}
	first, _ := chapters[0].(map[string]any)
	if first["chapter_title"] != "Basics" {
		t.Errorf("unexpected first chapter title: %v", first["chapter_title"])
	}
	if first["content"] != "chapter text one" {
		t.Errorf("unexpected first chapter content: %v", first["content"])
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/books/Trail Cooking/headings", nil)
	headings := decodeBody(t, resp)
	list, _ := headings["headings"].([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(list))
	}
}

func TestJobStatus_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/jobs/nope", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestExport_StreamsDocx(t *testing.T) {
	llmSrv := fakeLLM(t, outlineJSON, "content", "summary", "content", "summary")
	defer llmSrv.Close()
	srv, _ := newTestServer(t, llmSrv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/books/Trail Cooking/generate", map[string]any{
		"notes": "notes",
	})
	body := decodeBody(t, resp)
	jobID, _ := body["job_id"].(string)

	if status := waitForJob(t, srv.URL, jobID); status["status"] != string(bookgen.StatusCompleted) {
		t.Fatalf("job ended %v: %v", status["status"], status["error"])
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/books/Trail Cooking/export", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != docxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "Trail_Cooking.docx") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("response is not a zip archive (got %d bytes)", len(data))
	}
}

func TestExport_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/books/missing/export", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLLMStats_ReportsModel(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/stats/llm", nil)
	body := decodeBody(t, resp)
	if body["model"] != "test-model" {
		t.Errorf("unexpected model: %v", body["model"])
	}
}
