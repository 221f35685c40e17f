package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/document"
	"github.com/eleven-am/sight-backend/internal/dto"
	"github.com/eleven-am/sight-backend/internal/retrieval"
	"github.com/eleven-am/sight-backend/internal/session"
	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/labstack/echo/v4"
)

const maxDocumentBytes = 32 << 20

// Ingestor turns an uploaded file into a searchable index.
// document.Ingestor satisfies it.
type Ingestor interface {
	Ingest(ctx context.Context, sessionID, name string, data []byte, mimeType string) (*document.Index, error)
}

// DocumentReader lists what a session has uploaded. document.Store
// satisfies it.
type DocumentReader interface {
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	ListBySession(ctx context.Context, sessionID string) ([]*document.Document, error)
}

// FrameSink receives stills pushed over the socket. capture.FrameStore
// satisfies it.
type FrameSink interface {
	Put(ctx context.Context, frame *capture.Frame) error
}

// Answerer resolves one-off document questions outside a spoken
// session. retrieval.Engine satisfies it.
type Answerer interface {
	Answer(ctx context.Context, doc *document.Document, thread *retrieval.Thread, query string) (*retrieval.Result, error)
}

// Handler is the device-facing surface: a REST API for session and
// document management plus the speech websocket.
type Handler struct {
	sessions *session.Manager
	ingestor Ingestor
	docs     DocumentReader
	frames   FrameSink
	engine   Answerer
	logger   *slog.Logger
}

func NewHandler(sessions *session.Manager, ingestor Ingestor, docs DocumentReader, frames FrameSink, engine Answerer, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		ingestor: ingestor,
		docs:     docs,
		frames:   frames,
		engine:   engine,
		logger:   logger.With("component", "gateway"),
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/sessions", h.CreateSession)
	api.DELETE("/sessions/:id", h.EndSession)
	api.POST("/sessions/:id/utterance", h.Utterance)
	api.POST("/sessions/:id/documents", h.UploadDocument)
	api.GET("/sessions/:id/documents", h.ListDocuments)
	api.POST("/documents/:id/ask", h.Ask)
}

func (h *Handler) RegisterWS(e *echo.Echo, middleware ...echo.MiddlewareFunc) {
	e.GET("/ws/speech", h.handleSpeechSocket, middleware...)
}

func (h *Handler) CreateSession(c echo.Context) error {
	sess, err := h.sessions.Create(c.Request().Context())
	if err != nil {
		h.logger.Error("session create failed", "error", err)
		return shared.InternalError("session_create_failed", "could not create session")
	}

	return c.JSON(http.StatusCreated, dto.SessionResponse{
		ID:        sess.ID(),
		Status:    string(session.StatusActive),
		CreatedAt: time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) EndSession(c echo.Context) error {
	id := c.Param("id")
	if err := h.sessions.Remove(c.Request().Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("session_not_found", "session not found")
		}
		return shared.InternalError("session_end_failed", "could not end session")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Utterance(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return shared.NotFound("session_not_found", "session not found")
	}

	var req dto.UtteranceRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return shared.BadRequest("missing_text", "text is required")
	}

	reply := sess.HandleUtterance(c.Request().Context(), req.Text)
	h.sessions.Touch(c.Request().Context(), sess.ID())

	return c.JSON(http.StatusOK, dto.UtteranceResponse{
		Reply:  reply.Text,
		Intent: reply.Intent.String(),
		Topic:  reply.Topic.String(),
	})
}

func (h *Handler) UploadDocument(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return shared.NotFound("session_not_found", "session not found")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return shared.BadRequest("missing_file", "file is required")
	}
	if fileHeader.Size > maxDocumentBytes {
		return shared.BadRequest("file_too_large", "file exceeds the upload limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return shared.BadRequest("unreadable_file", "could not read upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return shared.BadRequest("unreadable_file", "could not read upload")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	index, err := h.ingestor.Ingest(c.Request().Context(), sess.ID(), fileHeader.Filename, data, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrEmptyDocument):
			return shared.BadRequest("empty_document", "the document has no extractable text")
		case errors.Is(err, shared.ErrEmbeddingFailed):
			h.logger.Error("document embedding failed", "error", err, "session_id", sess.ID())
			return shared.InternalError("embedding_failed", "could not index the document")
		default:
			h.logger.Error("document ingest failed", "error", err, "session_id", sess.ID())
			return shared.InternalError("ingest_failed", "could not ingest the document")
		}
	}

	sess.AttachDocument(index.Document)
	h.sessions.BindDocument(c.Request().Context(), sess.ID(), index.Document.ID)

	return c.JSON(http.StatusCreated, documentToResponse(index.Document))
}

func (h *Handler) ListDocuments(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return shared.NotFound("session_not_found", "session not found")
	}

	docs, err := h.docs.ListBySession(c.Request().Context(), sess.ID())
	if err != nil {
		h.logger.Error("document list failed", "error", err, "session_id", sess.ID())
		return shared.InternalError("list_failed", "could not list documents")
	}

	response := make([]dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		response[i] = documentToResponse(doc)
	}
	return c.JSON(http.StatusOK, dto.DocumentListResponse{Documents: response})
}

// Ask answers one question against a document without session state.
// Each call gets a fresh thread; spoken sessions keep theirs instead.
func (h *Handler) Ask(c echo.Context) error {
	doc, err := h.docs.GetDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("document_not_found", "document not found")
		}
		return shared.InternalError("get_failed", "could not load document")
	}

	var req dto.AskRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return shared.BadRequest("missing_question", "question is required")
	}

	result, err := h.engine.Answer(c.Request().Context(), doc, retrieval.NewThread(doc.ID), req.Question)
	if err != nil {
		if errors.Is(err, shared.ErrNoRelevantContent) {
			return shared.NotFound("no_relevant_content", "nothing in the document matches the question")
		}
		h.logger.Error("document answer failed", "error", err, "document_id", doc.ID)
		return shared.InternalError("answer_failed", "could not answer the question")
	}

	return c.JSON(http.StatusOK, dto.AskResponse{
		Answer:   result.Answer,
		ChunkIDs: result.ChunkIDs,
	})
}

func documentToResponse(doc *document.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		MimeType:   doc.MimeType,
		ChunkCount: doc.ChunkCount,
		CharCount:  doc.CharCount,
		CreatedAt:  doc.CreatedAt.Format(time.RFC3339),
	}
}
