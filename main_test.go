package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-rag-assistant/rag"
)

type fakeAnswerer struct {
	answer string
	query  string
	ctx    string
	opts   rag.AnswerOptions
}

func (f *fakeAnswerer) Answer(_ context.Context, query, contextText string, opts rag.AnswerOptions) string {
	f.query, f.ctx, f.opts = query, contextText, opts
	return f.answer
}

func newTestServer(llm Answerer) *Server {
	p := &rag.Pipeline{
		Loader:       rag.NewLoader(),
		Cleaner:      rag.NewCleaner(true),
		Structurizer: rag.NewStructurizer(rag.WithChunkSize(20), rag.WithChunkOverlap(5)),
	}
	return NewServer(p, llm, rag.DefaultAnswerOptions())
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		t.Fatalf("failed to decode response json: %v", err)
	}
	return data
}

func TestHealthHandler_OK(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.routes().ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "ok" {
		t.Fatalf("expected body 'ok', got %q", got)
	}
}

func TestChunkHandler_ReturnsChunks(t *testing.T) {
	s := newTestServer(nil)

	body := "This is a TEST document. It has two sentences!"
	req := httptest.NewRequest(http.MethodPost, "/chunk", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.chunkHandler(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	data := decode(t, resp)
	source, _ := data["source"].(string)
	if source == "" {
		t.Fatalf("expected a generated source id")
	}

	chunks, ok := data["chunks"].([]any)
	if !ok || len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %v", data["chunks"])
	}
	first := chunks[0].(map[string]any)
	if first["content"] != "this is a test docum" {
		t.Fatalf("unexpected first chunk %q", first["content"])
	}
	if first["id"] != source+"-1" {
		t.Fatalf("expected id %s-1, got %v", source, first["id"])
	}
}

func TestChunkHandler_EmptyBody(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/chunk", strings.NewReader(""))
	w := httptest.NewRecorder()

	s.chunkHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChunkHandler_MethodNotAllowed(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/chunk", nil)
	w := httptest.NewRecorder()

	s.chunkHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler_TextFile(t *testing.T) {
	s := newTestServer(nil)

	req := multipartUpload(t, "notes.txt", []byte("Hello   World. Short note."))
	w := httptest.NewRecorder()

	s.uploadHandler(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, w.Body.String())
	}

	data := decode(t, resp)
	if data["filename"] != "notes.txt" {
		t.Fatalf("expected filename notes.txt, got %v", data["filename"])
	}
	if data["status"] != string(rag.StatusOK) {
		t.Fatalf("expected status %q, got %v", rag.StatusOK, data["status"])
	}
	chunks, ok := data["chunks"].([]any)
	if !ok || len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %v", data["chunks"])
	}
	first := chunks[0].(map[string]any)
	if first["id"] != "notes.txt-1" {
		t.Fatalf("expected id notes.txt-1, got %v", first["id"])
	}
}

func TestUploadHandler_ImageIsUnsupported(t *testing.T) {
	s := newTestServer(nil)

	req := multipartUpload(t, "scan.png", []byte{0x89, 'P', 'N', 'G'})
	w := httptest.NewRecorder()

	s.uploadHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decode(t, w.Result())
	if data["status"] != string(rag.StatusUnsupported) {
		t.Fatalf("expected unsupported status, got %v", data["status"])
	}
	if reason, _ := data["reason"].(string); reason == "" {
		t.Fatalf("expected a reason for the unsupported upload")
	}
	if chunks, ok := data["chunks"].([]any); !ok || len(chunks) != 0 {
		t.Fatalf("expected an empty chunk list, got %v", data["chunks"])
	}
}

func TestUploadHandler_MissingFile(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plain body"))
	w := httptest.NewRecorder()

	s.uploadHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAskHandler_UsesAnswerer(t *testing.T) {
	llm := &fakeAnswerer{answer: "Paris."}
	s := newTestServer(llm)

	body := `{"query": "What is the capital of France?", "context": "Paris is the capital of France.", "temperature": 0.1}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.askHandler(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	data := decode(t, resp)
	if data["answer"] != "Paris." {
		t.Fatalf("expected answer 'Paris.', got %v", data["answer"])
	}
	if data["diagnostic"] != false {
		t.Fatalf("expected diagnostic=false, got %v", data["diagnostic"])
	}
	if llm.ctx != "Paris is the capital of France." {
		t.Fatalf("context not forwarded, got %q", llm.ctx)
	}
	if llm.opts.MaxTokens != 500 || llm.opts.Temperature != 0.1 {
		t.Fatalf("unexpected answer options %+v", llm.opts)
	}
}

func TestAskHandler_FlagsDiagnostics(t *testing.T) {
	s := newTestServer(&fakeAnswerer{answer: rag.DiagnosticRequestFailed})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query": "q"}`))
	w := httptest.NewRecorder()

	s.askHandler(w, req)

	data := decode(t, w.Result())
	if data["diagnostic"] != true {
		t.Fatalf("expected diagnostic=true, got %v", data["diagnostic"])
	}
}

func TestAskHandler_BadRequests(t *testing.T) {
	s := newTestServer(&fakeAnswerer{answer: "unused"})

	for _, body := range []string{`not json`, `{"query": ""}`} {
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
		w := httptest.NewRecorder()

		s.askHandler(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestAskHandler_NoLLMConfigured(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query": "q"}`))
	w := httptest.NewRecorder()

	s.askHandler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
