package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Signer produces a presigned URL for a target URI.
type Signer interface {
	Sign(ctx context.Context, uri string, expires int64) (string, error)
}

// CORSConfig controls the CORS middleware on the presign service.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// HandlerConfig configures the presign service handler.
type HandlerConfig struct {
	// DefaultExpires is used when a request omits the expires parameter.
	DefaultExpires int64
	CORS           CORSConfig
}

// Handler provides the HTTP surface of the presign service.
type Handler struct {
	config HandlerConfig
	signer Signer
}

// NewHandler creates a new Handler with the given configuration and signer.
func NewHandler(config *HandlerConfig, signer Signer) *Handler {
	return &Handler{
		config: *config,
		signer: signer,
	}
}

// Router returns an http.Handler exposing the presign endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(RequestID)
	r.Use(Logger)

	r.Get("/healthz", h.handleHealth)
	r.Get("/v1/sign", h.handleSign)

	return r
}

// SignResponse is the success payload of GET /v1/sign.
type SignResponse struct {
	URL     string `json:"url"`
	Expires int64  `json:"expires"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		WriteError(w, http.StatusBadRequest, "missing_uri", "Query parameter uri is required")
		return
	}

	expires := h.config.DefaultExpires
	if s := r.URL.Query().Get("expires"); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil || parsed < 0 {
			WriteError(w, http.StatusBadRequest, "invalid_expires", "Query parameter expires must be a non-negative integer")
			return
		}
		expires = parsed
	}

	signed, err := h.signer.Sign(r.Context(), uri, expires)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, SignResponse{URL: signed, Expires: expires})
}
