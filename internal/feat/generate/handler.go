package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/middleware"
	"github.com/cliossg/sitesmith/pkg/cl/validation"
	"github.com/go-chi/chi/v5"
)

const maxRequestBytes = 64 << 10

// Handler exposes draft generation over HTTP.
type Handler struct {
	service Service
	log     logger.Logger
}

// NewHandler creates a new generate handler.
func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// Start initializes the handler.
func (h *Handler) Start(ctx context.Context) error {
	h.log.Info("Generate handler started")
	return nil
}

// RegisterRoutes registers POST /api/generate.
func (h *Handler) RegisterRoutes(r chi.Router) {
	h.log.Info("Registering generate routes")
	r.With(middleware.Security).Post("/api/generate", h.HandleGenerate)
}

// HandleGenerate answers with a draft. Only invalid requests fail; upstream
// problems come back as a fallback draft with status 200.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	res, err := h.service.Generate(r.Context(), req)
	if err != nil {
		if validation.IsValidation(err) {
			jsonError(w, http.StatusBadRequest, "validation", err.Error())
			return
		}
		h.log.Errorf("Generate failed: %v", err)
		jsonError(w, http.StatusInternalServerError, "internal", "generation failed")
		return
	}

	jsonOK(w, res)
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
