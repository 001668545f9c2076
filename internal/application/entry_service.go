package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// EntryRequestStore captures the persistence operations for visitor requests.
type EntryRequestStore interface {
	CreateEntryRequest(ctx context.Context, request EntryRequest) error
	GetEntryRequest(ctx context.Context, id string) (EntryRequest, error)
	ListPendingEntryRequests(ctx context.Context) ([]EntryRequest, error)
	ResolveEntryRequest(ctx context.Context, id, status, respondedBy string, respondedAt time.Time) error
}

// EntryRequestService runs the visitor entry-request workflow: unauthenticated
// creation, admin review, and a single pending → accepted|refused transition.
type EntryRequestService struct {
	requests    EntryRequestStore
	audit       AuditLog
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEntryRequestService wires dependencies for the entry request service.
func NewEntryRequestService(requests EntryRequestStore, audit AuditLog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EntryRequestService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EntryRequestService{
		requests:    requests,
		audit:       audit,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EntryRequestService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EntryRequestService", operation, attrs...)
}

// Create registers a pending visitor request. A blank visitor name falls back
// to the default placeholder.
func (s *EntryRequestService) Create(ctx context.Context, params CreateEntryRequestParams) (EntryRequest, error) {
	if s == nil {
		return EntryRequest{}, fmt.Errorf("EntryRequestService is nil")
	}
	if s.requests == nil {
		return EntryRequest{}, fmt.Errorf("entry request store not configured")
	}

	name := strings.TrimSpace(params.VisitorName)
	if name == "" {
		name = DefaultVisitorName
	}

	var phone *string
	if trimmed := strings.TrimSpace(params.VisitorPhone); trimmed != "" {
		phone = &trimmed
	}

	request := EntryRequest{
		ID:           s.idGenerator(),
		VisitorName:  name,
		VisitorPhone: phone,
		Status:       EntryStatusPending,
		CreatedAt:    s.now(),
	}

	if err := s.requests.CreateEntryRequest(ctx, request); err != nil {
		s.loggerWith(ctx, "Create").ErrorContext(ctx, "entry request creation failed", "error", err)
		return EntryRequest{}, err
	}

	s.loggerWith(ctx, "Create", "request_id", request.ID).InfoContext(ctx, "entry request received")
	return request, nil
}

// ListPending returns unresolved requests for administrators, newest first.
func (s *EntryRequestService) ListPending(ctx context.Context, principal Principal) ([]EntryRequest, error) {
	if s == nil {
		return nil, fmt.Errorf("EntryRequestService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.requests == nil {
		return nil, nil
	}

	return s.requests.ListPendingEntryRequests(ctx)
}

// Respond resolves a pending request exactly once. Responding to an already
// resolved request fails with ErrAlreadyResolved and leaves it unchanged.
func (s *EntryRequestService) Respond(ctx context.Context, params RespondEntryRequestParams) (request EntryRequest, err error) {
	if s == nil {
		err = fmt.Errorf("EntryRequestService is nil")
		return
	}
	if s.requests == nil {
		err = fmt.Errorf("entry request store not configured")
		return
	}
	if s.audit == nil {
		err = fmt.Errorf("audit log not configured")
		return
	}

	logger := s.loggerWith(ctx, "Respond",
		"actor_id", params.Principal.UserID,
		"request_id", params.RequestID,
		"accept", params.Accept,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "entry request response failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "entry request resolved", "status", request.Status)
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}
	if strings.TrimSpace(params.RequestID) == "" {
		vErr := &ValidationError{}
		vErr.add("request_id", "request id is required")
		err = vErr
		return
	}

	status := EntryStatusRefused
	if params.Accept {
		status = EntryStatusAccepted
	}

	if err = s.requests.ResolveEntryRequest(ctx, params.RequestID, status, params.Principal.UserID, s.now()); err != nil {
		return
	}

	// The status transition above is already committed. The audit log is a
	// separate store with no shared transaction, so a failure here surfaces
	// as an error but does not roll the resolution back.
	detail := fmt.Sprintf("Demande #%s", params.RequestID)
	err = s.audit.Append(ctx, AuditEvent{
		ID:        s.idGenerator(),
		UserID:    &params.Principal.UserID,
		EventType: EventEntryRequest,
		Result:    status,
		Details:   &detail,
		CreatedAt: s.now(),
	})
	if err != nil {
		return
	}

	request, err = s.requests.GetEntryRequest(ctx, params.RequestID)
	return
}
