package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"idea-print/internal/api"
	"idea-print/internal/auth"
	"idea-print/internal/dedupe"
	"idea-print/internal/escpos"
	"idea-print/internal/pipeline"
	"idea-print/internal/printer"
)

const testSecret = "test-secret-key"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires the full stack (handlers, pipeline, memory store,
// file transport) onto a gin engine, returning the router and the
// output file path.
func newTestRouter(t *testing.T, store dedupe.Store) (*gin.Engine, string) {
	t.Helper()

	outPath := filepath.Join(t.TempDir(), "receipt.bin")
	pipe, err := pipeline.New(pipeline.Config{
		Secret:    testSecret,
		Store:     store,
		Profile:   escpos.DefaultProfile(),
		Transport: printer.NewFileTransport(outPath),
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}

	handler := NewHandler(pipe, "file", store != nil, zerolog.Nop())
	engine := gin.New()
	engine.POST("/print", handler.Print)
	engine.GET("/health", handler.Health)
	return engine, outPath
}

func signedPrintRequest(t *testing.T, req api.PrintRequest) *http.Request {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	ts := time.Now().Unix()
	r := httptest.NewRequest(http.MethodPost, "/print", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(api.HeaderTimestamp, strconv.FormatInt(ts, 10))
	r.Header.Set(api.HeaderSignature, auth.Generate(body, ts, testSecret))
	return r
}

func doRequest(engine *gin.Engine, r *http.Request) (*httptest.ResponseRecorder, api.PrintResponse) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, r)
	var resp api.PrintResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestPrintSignedRequest(t *testing.T) {
	engine, outPath := newTestRouter(t, nil)

	w, resp := doRequest(engine, signedPrintRequest(t, api.PrintRequest{
		IdeaText: "Edible packing peanuts",
		IdeaID:   "idea-7",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !resp.Success {
		t.Errorf("expected success, got message %q", resp.Message)
	}
	if resp.IdeaID != "idea-7" {
		t.Errorf("expected idea id echoed back, got %q", resp.IdeaID)
	}

	printed, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	if !bytes.HasPrefix(printed, escpos.Init) {
		t.Error("printed document must start with the init sequence")
	}
	if !bytes.Contains(printed, []byte("Edible packing peanuts")) {
		t.Error("printed document must contain the idea text")
	}
}

func TestPrintUnsignedRequestRejected(t *testing.T) {
	engine, outPath := newTestRouter(t, nil)

	body, _ := json.Marshal(api.PrintRequest{IdeaText: "sneaky"})
	r := httptest.NewRequest(http.MethodPost, "/print", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	w, resp := doRequest(engine, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp.Success {
		t.Error("unauthenticated request must not report success")
	}
	if resp.Message != "missing signature" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("no document should be written for a rejected request")
	}
}

func TestPrintTamperedBodyRejected(t *testing.T) {
	engine, _ := newTestRouter(t, nil)

	r := signedPrintRequest(t, api.PrintRequest{IdeaText: "original"})
	// Replace the body after signing; the signature no longer matches.
	tampered, _ := json.Marshal(api.PrintRequest{IdeaText: "tampered"})
	r.Body = httptest.NewRequest(http.MethodPost, "/print", bytes.NewReader(tampered)).Body
	r.ContentLength = int64(len(tampered))

	w, resp := doRequest(engine, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp.Message != "invalid signature" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestPrintDuplicateRequest(t *testing.T) {
	store := dedupe.NewMemoryStore(time.Hour)
	defer store.Close()
	engine, _ := newTestRouter(t, store)

	req := api.PrintRequest{IdeaText: "once only", RequestID: "req-abc"}

	w, resp := doRequest(engine, signedPrintRequest(t, req))
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected first request to succeed: %d %q", w.Code, resp.Message)
	}

	w, resp = doRequest(engine, signedPrintRequest(t, req))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for duplicate, got %d", w.Code)
	}
	if !resp.Success {
		t.Error("duplicate should report success")
	}
	if resp.Message != "Duplicate request (already processed)" {
		t.Errorf("unexpected duplicate message %q", resp.Message)
	}
}

func TestPrintInvalidJSON(t *testing.T) {
	engine, _ := newTestRouter(t, nil)

	r := httptest.NewRequest(http.MethodPost, "/print", bytes.NewReader([]byte("{not json")))
	w, resp := doRequest(engine, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp.Success {
		t.Error("malformed request must not report success")
	}
}

func TestPrintMissingIdeaText(t *testing.T) {
	engine, _ := newTestRouter(t, nil)

	w, resp := doRequest(engine, signedPrintRequest(t, api.PrintRequest{IdeaID: "no-text"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp.Message != "idea_text is required" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestHealth(t *testing.T) {
	store := dedupe.NewMemoryStore(time.Hour)
	defer store.Close()
	engine, _ := newTestRouter(t, store)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp api.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Transport != "file" {
		t.Errorf("expected transport file, got %q", resp.Transport)
	}
	if !resp.DedupeEnabled {
		t.Error("expected dedupe to be reported enabled")
	}
}
