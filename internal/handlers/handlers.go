package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"idea-print/internal/api"
	"idea-print/internal/pipeline"
)

// maxBodyBytes caps the request body read: the idea text limit plus
// generous headroom for ids and JSON framing.
const maxBodyBytes = 64 * 1024

// Handler holds the dependencies of the HTTP endpoints.
type Handler struct {
	pipeline      *pipeline.Pipeline
	transportKind string
	dedupeEnabled bool
	log           zerolog.Logger
}

// NewHandler creates a handler around an assembled pipeline.
func NewHandler(p *pipeline.Pipeline, transportKind string, dedupeEnabled bool, log zerolog.Logger) *Handler {
	return &Handler{
		pipeline:      p,
		transportKind: transportKind,
		dedupeEnabled: dedupeEnabled,
		log:           log,
	}
}

// Print handles POST /print. The raw body is captured before JSON
// decoding because the HMAC signature covers the exact bytes sent.
func (h *Handler) Print(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.PrintResponse{
			Success: false,
			Message: "failed to read request body",
		})
		return
	}

	var req api.PrintRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, api.PrintResponse{
			Success: false,
			Message: "invalid JSON payload",
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, api.PrintResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	outcome := h.pipeline.Process(c.Request.Context(), pipeline.Request{
		Body:      body,
		Signature: c.GetHeader(api.HeaderSignature),
		Timestamp: c.GetHeader(api.HeaderTimestamp),
		IdeaText:  req.IdeaText,
		IdeaID:    req.IdeaID,
		RequestID: req.RequestID,
	})

	status := http.StatusOK
	switch outcome.Status {
	case pipeline.StatusAuthFailed:
		status = http.StatusUnauthorized
	case pipeline.StatusPrintFailed:
		status = http.StatusInternalServerError
	}

	c.JSON(status, api.PrintResponse{
		Success: outcome.Success(),
		Message: outcome.Message,
		IdeaID:  req.IdeaID,
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:        "ok",
		Transport:     h.transportKind,
		DedupeEnabled: h.dedupeEnabled,
	})
}
