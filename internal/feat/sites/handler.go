package sites

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/middleware"
	"github.com/cliossg/sitesmith/pkg/cl/validation"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/blake2b"
)

const defaultMaxBodyBytes = 2 << 20

// Handler exposes publishing and serving over HTTP.
type Handler struct {
	service Service
	cfg     *config.Config
	log     logger.Logger
}

// NewHandler creates a new sites handler.
func NewHandler(service Service, cfg *config.Config, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		log:     log,
	}
}

// Start initializes the handler.
func (h *Handler) Start(ctx context.Context) error {
	h.log.Info("Sites handler started")
	return nil
}

// RegisterRoutes registers the publish API and the public site routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	h.log.Info("Registering sites routes")

	api := r.With(middleware.Security)
	api.Post("/api/sites", h.HandlePublish)
	api.Post("/api/save", h.HandlePublish)

	public := r.With(middleware.NoSniff)
	public.Get("/u/{slug}", h.HandleServe)
	public.Get("/u/{slug}/", h.HandleServe)
}

func (h *Handler) maxBodyBytes() int64 {
	if h.cfg != nil && h.cfg.Publish.MaxBodyBytes > 0 {
		return h.cfg.Publish.MaxBodyBytes
	}
	return defaultMaxBodyBytes
}

// HandlePublish handles POST /api/sites and its /api/save alias.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes())

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	res, err := h.service.Publish(r.Context(), req)
	if err != nil {
		switch {
		case validation.IsValidation(err):
			jsonError(w, http.StatusBadRequest, "validation", err.Error())
		default:
			jsonError(w, http.StatusInternalServerError, "storage", "failed to save site")
		}
		return
	}

	jsonOK(w, res)
}

// HandleServe handles GET /u/{slug} and /u/{slug}/.
func (h *Handler) HandleServe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.service.Serve(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "site not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load site", http.StatusInternalServerError)
		return
	}

	var modTime time.Time
	if page.Site != nil {
		modTime = page.Site.UpdatedAt
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", documentETag(page.Document))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, IndexFile, modTime, strings.NewReader(page.Document))
}

// documentETag returns a strong validator derived from the document bytes.
func documentETag(doc string) string {
	sum := blake2b.Sum256([]byte(doc))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
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
