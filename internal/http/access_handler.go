package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/door-security/internal/actuator"
	"github.com/example/door-security/internal/application"
)

type accessService interface {
	OpenDoor(ctx context.Context, principal application.Principal) error
	TriggerAlarm(ctx context.Context, principal application.Principal) error
	StopAlarm(ctx context.Context, principal application.Principal) error
	AlarmStatus(ctx context.Context, principal application.Principal) actuator.State
	History(ctx context.Context, principal application.Principal, limit int) ([]application.AuditEntry, error)
}

// AccessHandler serves the door, alarm, and audit trail endpoints.
type AccessHandler struct {
	service   accessService
	responder responder
	logger    *slog.Logger
}

func NewAccessHandler(service accessService, logger *slog.Logger) *AccessHandler {
	base := defaultLogger(logger)
	return &AccessHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AccessHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AccessHandler", operation, attrs...)
}

// OpenDoor requests a door opening for the authenticated principal.
func (h *AccessHandler) OpenDoor(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "OpenDoor", "principal_id", principal.UserID)

	if err := h.service.OpenDoor(r.Context(), principal); err != nil {
		logger.ErrorContext(r.Context(), "door open failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "door opened")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "Porte ouverte."})
}

// TriggerAlarm manually sounds the alarm.
func (h *AccessHandler) TriggerAlarm(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "TriggerAlarm", "principal_id", principal.UserID)

	if err := h.service.TriggerAlarm(r.Context(), principal); err != nil {
		logger.ErrorContext(r.Context(), "alarm trigger failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "alarm triggered")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "Alarme déclenchée."})
}

// StopAlarm silences the alarm.
func (h *AccessHandler) StopAlarm(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "StopAlarm", "principal_id", principal.UserID)

	if err := h.service.StopAlarm(r.Context(), principal); err != nil {
		logger.ErrorContext(r.Context(), "alarm stop failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "alarm stopped")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "Alarme arrêtée."})
}

// AlarmStatus reports the controller's alarm state. Always 200; the state may
// be "unknown" when the controller cannot be queried.
func (h *AccessHandler) AlarmStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	state := h.service.AlarmStatus(r.Context(), principal)

	h.responder.writeJSON(r.Context(), w, http.StatusOK, alarmStatusResponse{State: string(state)})
}

// History lists audit events, most recent first.
func (h *AccessHandler) History(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		limit = parsed
	}

	logger := h.log(r.Context(), "History", "principal_id", principal.UserID)

	entries, err := h.service.History(r.Context(), principal, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "history listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]auditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toAuditEntryDTO(entry))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, historyResponse{Events: dtos})
}

type messageResponse struct {
	Message string `json:"message"`
}

type alarmStatusResponse struct {
	State string `json:"alarm"`
}

type auditEntryDTO struct {
	ID        string  `json:"id"`
	UserID    *string `json:"user_id"`
	UserName  *string `json:"user_name,omitempty"`
	UserEmail *string `json:"user_email,omitempty"`
	EventType string  `json:"event_type"`
	Result    string  `json:"result"`
	Details   *string `json:"details,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type historyResponse struct {
	Events []auditEntryDTO `json:"events"`
}

func toAuditEntryDTO(entry application.AuditEntry) auditEntryDTO {
	return auditEntryDTO{
		ID:        entry.Event.ID,
		UserID:    entry.Event.UserID,
		UserName:  entry.UserName,
		UserEmail: entry.UserEmail,
		EventType: entry.Event.EventType,
		Result:    entry.Event.Result,
		Details:   entry.Event.Details,
		CreatedAt: entry.Event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
