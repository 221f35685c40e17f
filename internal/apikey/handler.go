package apikey

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/sight-backend/internal/dto"
	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With("component", "apikey_handler"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.DELETE("/:id", h.Delete)
}

func keyToResponse(k *APIKey) dto.APIKeyResponse {
	resp := dto.APIKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Prefix:    k.Prefix,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}

	if k.ExpiresAt != nil {
		expiresAt := k.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &expiresAt
	}

	if k.LastUsedAt != nil {
		lastUsed := k.LastUsedAt.Format(time.RFC3339)
		resp.LastUsed = &lastUsed
	}

	return resp
}

func (h *Handler) List(c echo.Context) error {
	keys, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list device keys", "error", err)
		return shared.InternalError("list_failed", "failed to list device keys")
	}

	response := make([]dto.APIKeyResponse, len(keys))
	for i, k := range keys {
		response[i] = keyToResponse(k)
	}

	return c.JSON(http.StatusOK, dto.APIKeyListResponse{APIKeys: response})
}

func (h *Handler) Create(c echo.Context) error {
	var req dto.CreateAPIKeyRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return shared.BadRequest("missing_name", "name is required")
	}

	key := &APIKey{Name: req.Name}
	if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		expiresAt := time.Now().AddDate(0, 0, *req.ExpiresIn)
		key.ExpiresAt = &expiresAt
	}

	secret, err := h.store.Create(c.Request().Context(), key)
	if err != nil {
		h.logger.Error("failed to create device key", "error", err)
		return shared.InternalError("create_failed", "failed to create device key")
	}

	resp := keyToResponse(key)
	return c.JSON(http.StatusCreated, dto.CreateAPIKeyResponse{
		ID:        resp.ID,
		Name:      resp.Name,
		Prefix:    resp.Prefix,
		CreatedAt: resp.CreatedAt,
		ExpiresAt: resp.ExpiresAt,
		Secret:    secret,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	keyID := c.Param("id")

	if err := h.store.Delete(c.Request().Context(), keyID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("key_not_found", "device key not found")
		}
		h.logger.Error("failed to delete device key", "error", err, "key_id", keyID)
		return shared.InternalError("delete_failed", "failed to delete device key")
	}

	return c.NoContent(http.StatusNoContent)
}
