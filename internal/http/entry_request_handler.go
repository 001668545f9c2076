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

type entryRequestService interface {
	Create(ctx context.Context, params application.CreateEntryRequestParams) (application.EntryRequest, error)
	ListPending(ctx context.Context, principal application.Principal) ([]application.EntryRequest, error)
	Respond(ctx context.Context, params application.RespondEntryRequestParams) (application.EntryRequest, error)
}

// EntryRequestHandler serves the visitor intercom endpoints.
type EntryRequestHandler struct {
	service   entryRequestService
	responder responder
	logger    *slog.Logger
}

func NewEntryRequestHandler(service entryRequestService, logger *slog.Logger) *EntryRequestHandler {
	base := defaultLogger(logger)
	return &EntryRequestHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EntryRequestHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EntryRequestHandler", operation, attrs...)
}

// Create registers a visitor request. The endpoint is unauthenticated.
func (h *EntryRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req entryRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode entry request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	request, err := h.service.Create(r.Context(), application.CreateEntryRequestParams{
		VisitorName:  req.VisitorName,
		VisitorPhone: req.VisitorPhone,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "entry request creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("request_id", request.ID).InfoContext(r.Context(), "entry request received")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, entryRequestResponse{Request: toEntryRequestDTO(request)})
}

// ListPending returns unresolved requests for administrators.
func (h *EntryRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListPending", "principal_id", principal.UserID)

	requests, err := h.service.ListPending(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "entry request listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]entryRequestDTO, 0, len(requests))
	for _, request := range requests {
		dtos = append(dtos, toEntryRequestDTO(request))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryRequestListResponse{Requests: dtos})
}

// Respond resolves a pending request.
func (h *EntryRequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.log(r.Context(), "Respond", "error_kind", "bad_request").ErrorContext(r.Context(), "missing request id for respond")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Respond", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode respond request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Respond", "principal_id", principal.UserID, "request_id", requestID, "accept", req.Accept)

	request, err := h.service.Respond(r.Context(), application.RespondEntryRequestParams{
		Principal: principal,
		RequestID: requestID,
		Accept:    req.Accept,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "entry request response failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "entry request resolved", "status", request.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryRequestResponse{Request: toEntryRequestDTO(request)})
}

type entryRequestRequest struct {
	VisitorName  string `json:"visitor_name"`
	VisitorPhone string `json:"visitor_phone"`
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

type entryRequestDTO struct {
	ID           string  `json:"id"`
	VisitorName  string  `json:"visitor_name"`
	VisitorPhone *string `json:"visitor_phone,omitempty"`
	Status       string  `json:"status"`
	RespondedBy  *string `json:"responded_by,omitempty"`
	RespondedAt  *string `json:"responded_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

type entryRequestResponse struct {
	Request entryRequestDTO `json:"request"`
}

type entryRequestListResponse struct {
	Requests []entryRequestDTO `json:"requests"`
}

func toEntryRequestDTO(request application.EntryRequest) entryRequestDTO {
	dto := entryRequestDTO{
		ID:           request.ID,
		VisitorName:  request.VisitorName,
		VisitorPhone: request.VisitorPhone,
		Status:       request.Status,
		RespondedBy:  request.RespondedBy,
		CreatedAt:    request.CreatedAt.UTC().Format(time.RFC3339),
	}
	if request.RespondedAt != nil {
		formatted := request.RespondedAt.UTC().Format(time.RFC3339)
		dto.RespondedAt = &formatted
	}
	return dto
}
