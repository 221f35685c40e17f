package face

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/sight-backend/internal/dto"
	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/labstack/echo/v4"
)

const maxImageBytes = 8 << 20

type Handler struct {
	registry *Registry
	logger   *slog.Logger
}

func NewHandler(registry *Registry, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Register)
	g.GET("/stats", h.Stats)
	g.DELETE("/:id", h.Delete)
}

func faceToResponse(f *Face) dto.FaceResponse {
	return dto.FaceResponse{
		ID:        f.ID,
		Name:      f.Name,
		Aliases:   f.Aliases,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) List(c echo.Context) error {
	faces, err := h.registry.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list faces", "error", err)
		return shared.InternalError("list_failed", "failed to list faces")
	}

	response := make([]dto.FaceResponse, len(faces))
	for i, f := range faces {
		response[i] = faceToResponse(f)
	}
	return c.JSON(http.StatusOK, dto.FaceListResponse{Faces: response})
}

// Register accepts a multipart form: the person's name plus a JPEG
// reference image.
func (h *Handler) Register(c echo.Context) error {
	var req dto.RegisterFaceRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return shared.BadRequest("missing_name", "name is required")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return shared.BadRequest("missing_image", "reference image is required")
	}
	src, err := file.Open()
	if err != nil {
		return shared.BadRequest("invalid_image", "could not read image")
	}
	defer src.Close()

	frame, err := io.ReadAll(io.LimitReader(src, maxImageBytes))
	if err != nil || len(frame) == 0 {
		return shared.BadRequest("invalid_image", "could not read image")
	}

	f, err := h.registry.Register(c.Request().Context(), req.Name, req.Aliases, frame)
	if err != nil {
		h.logger.Error("face registration failed", "name", req.Name, "error", err)
		return shared.InternalError("register_failed", "failed to register face")
	}

	return c.JSON(http.StatusCreated, faceToResponse(f))
}

func (h *Handler) Stats(c echo.Context) error {
	total, err := h.registry.Count(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to count faces", "error", err)
		return shared.InternalError("stats_failed", "failed to compute stats")
	}
	return c.JSON(http.StatusOK, dto.FaceStatsResponse{Total: total})
}

func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	err := h.registry.Remove(c.Request().Context(), id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("face_not_found", "face not found")
	}
	if err != nil {
		h.logger.Error("failed to delete face", "face_id", id, "error", err)
		return shared.InternalError("delete_failed", "failed to delete face")
	}
	return c.NoContent(http.StatusNoContent)
}
