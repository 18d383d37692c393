package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lims-platform/identity/internal/platform/httpx"
)

// Handler exposes account management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listAccounts)
	r.Post("/", h.register)
	r.Post("/with-roles", h.createWithRoles)
	r.Get("/by-role/{role}", h.listByRole)
	r.Get("/{id}", h.getAccount)
	r.Put("/{id}", h.updateProfile)
	r.Delete("/{id}", h.deleteAccount)
	r.Put("/{id}/password", h.changePassword)
	r.Post("/{id}/roles/{role}", h.addRole)
	r.Delete("/{id}/roles/{role}", h.removeRole)
	r.Get("/{id}/has-role/{role}", h.hasRole)
}

type registerPayload struct {
	Username  string `json:"username" validate:"required,min=3"`
	Password  string `json:"password" validate:"required,min=8"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type createWithRolesPayload struct {
	registerPayload
	Roles []string `json:"roles" validate:"required,min=1"`
}

type profilePayload struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Enabled   bool   `json:"enabled"`
}

type passwordPayload struct {
	Password string `json:"password" validate:"required,min=8"`
}

// accountResponse is the redacted account shape. The password hash never
// leaves the store boundary.
type accountResponse struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Enabled   bool     `json:"enabled"`
	Roles     []string `json:"roles"`
}

func toResponse(acct Account) accountResponse {
	return accountResponse{
		ID:        acct.ID,
		Username:  acct.Username,
		Email:     acct.Email,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Enabled:   acct.Enabled,
		Roles:     acct.RoleNames(),
	}
}

func toResponses(accts []Account) []accountResponse {
	out := make([]accountResponse, 0, len(accts))
	for _, acct := range accts {
		out = append(out, toResponse(acct))
	}
	return out
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := h.service.FindAll(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(accts))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if !h.decodeValid(w, r, &payload) {
		return
	}
	acct, err := h.service.Register(r.Context(), NewAccount{
		Username:  payload.Username,
		Password:  payload.Password,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		h.logger.Error("register account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(acct))
}

func (h *Handler) createWithRoles(w http.ResponseWriter, r *http.Request) {
	var payload createWithRolesPayload
	if !h.decodeValid(w, r, &payload) {
		return
	}
	acct, err := h.service.CreateWithRoles(r.Context(), NewAccount{
		Username:  payload.Username,
		Password:  payload.Password,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	}, payload.Roles)
	if err != nil {
		h.logger.Error("create account with roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(acct))
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	acct, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acct))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var payload profilePayload
	if !h.decodeValid(w, r, &payload) {
		return
	}
	acct, err := h.service.UpdateProfile(r.Context(), id, ProfileUpdate{
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Enabled:   payload.Enabled,
	})
	if err != nil {
		h.logger.Error("update profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acct))
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var payload passwordPayload
	if !h.decodeValid(w, r, &payload) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), id, payload.Password); err != nil {
		h.logger.Error("change password", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	acct, err := h.service.AddRole(r.Context(), id, chi.URLParam(r, "role"))
	if err != nil {
		h.logger.Error("add role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acct))
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	acct, err := h.service.RemoveRole(r.Context(), id, chi.URLParam(r, "role"))
	if err != nil {
		h.logger.Error("remove role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acct))
}

func (h *Handler) hasRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	held, err := h.service.HasRole(r.Context(), id, chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"hasRole": held})
}

func (h *Handler) listByRole(w http.ResponseWriter, r *http.Request) {
	accts, err := h.service.ListByRole(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(accts))
}

func (h *Handler) accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}
