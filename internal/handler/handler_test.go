package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/arosell/go-docsearch/internal/adapter/ai"
	"github.com/arosell/go-docsearch/internal/adapter/extract"
	"github.com/arosell/go-docsearch/internal/adapter/store"
	"github.com/arosell/go-docsearch/internal/chunker"
	"github.com/arosell/go-docsearch/internal/service"
)

// newTestApp builds a fiber app with the full pipeline over the in-memory
// store and the deterministic hashing embedder.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	extractor, err := extract.New("")
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	embedder := ai.NewHashingEmbedder(128)
	memStore := store.NewMemoryStore()

	ingest := service.NewIngestService(extractor, chunker.New(), embedder, memStore)
	search := service.NewSearchService(embedder, memStore, 5, 0.3)

	app := fiber.New()
	api := app.Group("/api/v1")
	NewDocumentHandler(ingest).Register(api)
	NewSearchHandler(search).Register(api)
	return app
}

// uploadRequest builds a multipart POST /api/v1/documents with one file.
func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
	return body
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUploadAndList(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(uploadRequest(t, "fox.txt", "the quick brown fox jumps over the lazy dog"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	docs := body["documents"].([]interface{})
	if len(docs) != 1 {
		t.Fatalf("expected 1 ingested document, got %d", len(docs))
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body = decodeBody(t, resp)
	if int(body["count"].(float64)) != 1 {
		t.Errorf("expected 1 document in list, got %v", body["count"])
	}
}

func TestUploadNoFiles(t *testing.T) {
	app := newTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(uploadRequest(t, "image.png", "not really an image"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", resp.StatusCode)
	}
}

func TestSearchFlow(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(uploadRequest(t, "fox.txt", "The quick brown fox jumps over the lazy dog."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/search",
		map[string]interface{}{"query": "quick fox", "top_k": 5}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	results := body["results"].([]interface{})
	if len(results) == 0 {
		t.Fatal("expected search results")
	}
	first := results[0].(map[string]interface{})
	if first["filename"] != "fox.txt" {
		t.Errorf("expected fox.txt as source, got %v", first["filename"])
	}
	if first["score"].(float64) <= 0.3 {
		t.Errorf("expected score above threshold, got %v", first["score"])
	}
}

func TestDeleteFlow(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(uploadRequest(t, "doc.txt", "content to be deleted from the index"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := decodeBody(t, resp)
	doc := body["documents"].([]interface{})[0].(map[string]interface{})
	id := doc["id"].(string)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+id, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Second delete must report not found.
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+id, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body = decodeBody(t, resp)
	if int(body["count"].(float64)) != 0 {
		t.Errorf("expected empty list after delete, got %v", body["count"])
	}
}

func TestDeleteBatch(t *testing.T) {
	app := newTestApp(t)

	ids := make([]string, 0, 2)
	for _, name := range []string{"a.txt", "b.txt"} {
		resp, err := app.Test(uploadRequest(t, name, "content for "+name))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body := decodeBody(t, resp)
		doc := body["documents"].([]interface{})[0].(map[string]interface{})
		ids = append(ids, doc["id"].(string))
	}

	payload := map[string]interface{}{"ids": append(ids, "not-a-uuid")}
	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/documents", payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if deleted := body["deleted"].([]interface{}); len(deleted) != 2 {
		t.Errorf("expected 2 deleted, got %d", len(deleted))
	}
	if failures := body["errors"].([]interface{}); len(failures) != 1 {
		t.Errorf("expected 1 failure, got %d", len(failures))
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body = decodeBody(t, resp)
	if int(body["count"].(float64)) != 0 {
		t.Errorf("expected empty list, got %v", body["count"])
	}
}

func TestDeleteBatchEmptyIDs(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/documents",
		map[string]interface{}{"ids": []string{}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
