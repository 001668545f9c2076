package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/door-security/internal/application"
)

type authorizationService interface {
	ListGrantedUsers(ctx context.Context, principal application.Principal) ([]application.GrantedUser, error)
	Grant(ctx context.Context, principal application.Principal, userID string) error
	Revoke(ctx context.Context, principal application.Principal, userID string) error
}

// GrantHandler manages the list of users authorized to open the door.
type GrantHandler struct {
	service   authorizationService
	responder responder
	logger    *slog.Logger
}

func NewGrantHandler(service authorizationService, logger *slog.Logger) *GrantHandler {
	base := defaultLogger(logger)
	return &GrantHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *GrantHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "GrantHandler", operation, attrs...)
}

func (h *GrantHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	granted, err := h.service.ListGrantedUsers(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "grant listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]grantedUserDTO, 0, len(granted))
	for _, g := range granted {
		dtos = append(dtos, grantedUserDTO{
			UserID:    g.UserID,
			Email:     g.Email,
			Name:      g.Name,
			GrantedAt: g.GrantedAt.UTC().Format(time.RFC3339),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, grantedUserListResponse{Users: dtos})
}

func (h *GrantHandler) Grant(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Grant", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode grant request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	logger := h.log(r.Context(), "Grant", "principal_id", principal.UserID, "user_id", userID)

	if err := h.service.Grant(r.Context(), principal, userID); err != nil {
		logger.ErrorContext(r.Context(), "grant failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "door access granted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, grantResponse{UserID: userID})
}

func (h *GrantHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.log(r.Context(), "Revoke", "error_kind", "bad_request").ErrorContext(r.Context(), "missing user id for revoke")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Revoke", "principal_id", principal.UserID, "user_id", userID)

	if err := h.service.Revoke(r.Context(), principal, userID); err != nil {
		logger.ErrorContext(r.Context(), "revoke failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "door access revoked")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type grantRequest struct {
	UserID string `json:"user_id"`
}

type grantResponse struct {
	UserID string `json:"user_id"`
}

type grantedUserDTO struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	GrantedAt string `json:"granted_at"`
}

type grantedUserListResponse struct {
	Users []grantedUserDTO `json:"users"`
}
