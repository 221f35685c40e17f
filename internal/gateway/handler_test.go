package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/conversation"
	"github.com/eleven-am/sight-backend/internal/document"
	"github.com/eleven-am/sight-backend/internal/dto"
	"github.com/eleven-am/sight-backend/internal/intent"
	"github.com/eleven-am/sight-backend/internal/perception"
	"github.com/eleven-am/sight-backend/internal/retrieval"
	"github.com/eleven-am/sight-backend/internal/session"
	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

type stubCamera struct{}

func (stubCamera) CaptureStill(ctx context.Context) ([]byte, error) { return []byte{0x01}, nil }
func (stubCamera) Aim(ctx context.Context, angle int)               {}

type stubAdapter struct{ reply string }

func (a *stubAdapter) Name() string { return "stub" }
func (a *stubAdapter) Analyze(ctx context.Context, req perception.Request) (*perception.Result, error) {
	return &perception.Result{Description: a.reply}, nil
}

type stubIngestor struct {
	index *document.Index
	err   error
	calls int
}

func (s *stubIngestor) Ingest(ctx context.Context, sessionID, name string, data []byte, mimeType string) (*document.Index, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.index, nil
}

type stubDocs struct {
	doc  *document.Document
	list []*document.Document
}

func (s *stubDocs) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	if s.doc == nil || s.doc.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.doc, nil
}

func (s *stubDocs) ListBySession(ctx context.Context, sessionID string) ([]*document.Document, error) {
	return s.list, nil
}

type stubEngine struct {
	answer string
	err    error
}

func (s *stubEngine) Answer(ctx context.Context, doc *document.Document, thread *retrieval.Thread, query string) (*retrieval.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &retrieval.Result{Answer: s.answer, ChunkIDs: []string{"c1"}}, nil
}

type gatewayFixture struct {
	e        *echo.Echo
	handler  *Handler
	sessions *session.Manager
	ingestor *stubIngestor
	docs     *stubDocs
	engine   *stubEngine
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	logger := testLogger()

	deps := session.Deps{
		Leases:  capture.NewManager(logger),
		Camera:  stubCamera{},
		Context: conversation.NewStore(time.Minute, logger),
		Router:  intent.NewRouter(logger),
		Adapters: map[intent.Kind]perception.Adapter{
			intent.KindScene: &stubAdapter{reply: "a hallway with a coat rack"},
		},
	}
	sessions := session.NewManager(deps, nil, logger)

	f := &gatewayFixture{
		e:        echo.New(),
		sessions: sessions,
		ingestor: &stubIngestor{},
		docs:     &stubDocs{},
		engine:   &stubEngine{answer: "forty two"},
	}
	f.e.Validator = &requestValidator{v: validator.New()}
	f.handler = NewHandler(sessions, f.ingestor, f.docs, nil, f.engine, logger)
	f.handler.RegisterRoutes(f.e.Group("/api"))
	f.handler.RegisterWS(f.e)
	return f
}

func (f *gatewayFixture) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateAndEndSession(t *testing.T) {
	f := newGatewayFixture(t)

	rec := f.do(http.MethodPost, "/api/sessions", nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "sess_") {
		t.Errorf("session id %q", resp.ID)
	}
	if f.sessions.Count() != 1 {
		t.Fatalf("manager holds %d sessions", f.sessions.Count())
	}

	rec = f.do(http.MethodDelete, "/api/sessions/"+resp.ID, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("end returned %d", rec.Code)
	}
	if f.sessions.Count() != 0 {
		t.Error("session not removed")
	}

	rec = f.do(http.MethodDelete, "/api/sessions/"+resp.ID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("double end returned %d", rec.Code)
	}
}

func TestHandler_Utterance(t *testing.T) {
	f := newGatewayFixture(t)
	sess, _ := f.sessions.Create(context.Background())

	body := strings.NewReader(`{"text":"describe the scene"}`)
	rec := f.do(http.MethodPost, "/api/sessions/"+sess.ID()+"/utterance", body, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("utterance returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.UtteranceResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Reply != "a hallway with a coat rack" {
		t.Errorf("reply %q", resp.Reply)
	}
	if resp.Intent != "scene" {
		t.Errorf("intent %q", resp.Intent)
	}
}

func TestHandler_UtteranceValidation(t *testing.T) {
	f := newGatewayFixture(t)
	sess, _ := f.sessions.Create(context.Background())

	rec := f.do(http.MethodPost, "/api/sessions/"+sess.ID()+"/utterance", strings.NewReader(`{}`), echo.MIMEApplicationJSON)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty utterance returned %d", rec.Code)
	}

	rec = f.do(http.MethodPost, "/api/sessions/sess_missing/utterance", strings.NewReader(`{"text":"hi"}`), echo.MIMEApplicationJSON)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing session returned %d", rec.Code)
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("multipart setup: %v", err)
	}
	part.Write(content)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_UploadDocumentAttaches(t *testing.T) {
	f := newGatewayFixture(t)
	sess, _ := f.sessions.Create(context.Background())

	f.ingestor.index = &document.Index{
		Document: &document.Document{
			ID:         "doc_1",
			Name:       "manual.txt",
			MimeType:   "text/plain",
			ChunkCount: 3,
			CharCount:  1200,
			CreatedAt:  time.Now(),
		},
	}

	body, contentType := multipartBody(t, "file", "manual.txt", []byte("warranty terms"))
	rec := f.do(http.MethodPost, "/api/sessions/"+sess.ID()+"/documents", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}

	if f.ingestor.calls != 1 {
		t.Fatalf("ingestor called %d times", f.ingestor.calls)
	}
	attached := sess.ActiveDocument()
	if attached == nil || attached.ID != "doc_1" {
		t.Error("document not attached to session")
	}
}

func TestHandler_UploadEmptyDocument(t *testing.T) {
	f := newGatewayFixture(t)
	sess, _ := f.sessions.Create(context.Background())
	f.ingestor.err = shared.ErrEmptyDocument

	body, contentType := multipartBody(t, "file", "blank.pdf", []byte{})
	rec := f.do(http.MethodPost, "/api/sessions/"+sess.ID()+"/documents", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty document returned %d", rec.Code)
	}
	if sess.ActiveDocument() != nil {
		t.Error("failed upload attached a document")
	}
}

func TestHandler_Ask(t *testing.T) {
	f := newGatewayFixture(t)
	f.docs.doc = &document.Document{ID: "doc_1", Name: "manual.txt"}

	body := strings.NewReader(`{"question":"what is the answer"}`)
	rec := f.do(http.MethodPost, "/api/documents/doc_1/ask", body, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("ask returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.AskResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Answer != "forty two" {
		t.Errorf("answer %q", resp.Answer)
	}

	rec = f.do(http.MethodPost, "/api/documents/doc_missing/ask", strings.NewReader(`{"question":"hm"}`), echo.MIMEApplicationJSON)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing document returned %d", rec.Code)
	}
}

func TestHandler_AskNoRelevantContent(t *testing.T) {
	f := newGatewayFixture(t)
	f.docs.doc = &document.Document{ID: "doc_1"}
	f.engine.err = shared.ErrNoRelevantContent

	body := strings.NewReader(`{"question":"unrelated"}`)
	rec := f.do(http.MethodPost, "/api/documents/doc_1/ask", body, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusNotFound {
		t.Errorf("irrelevant question returned %d", rec.Code)
	}
}
