package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/door-security/internal/actuator"
)

// DoorController abstracts the actuator gateway so the authorizer can be
// exercised against a fake in tests.
type DoorController interface {
	Open(ctx context.Context) error
	SoundAlarm(ctx context.Context) error
	SilenceAlarm(ctx context.Context) error
	Status(ctx context.Context) (actuator.State, error)
}

// AuditLog is the append-only sink shared by every decision point. Records
// are immutable once written and are listed most-recent-first.
type AuditLog interface {
	Append(ctx context.Context, event AuditEvent) error
	List(ctx context.Context, limit int) ([]AuditEntry, error)
}

const (
	historyDefaultLimit = 50
	historyMaxLimit     = 200
)

// AccessService is the door access authorizer: it decides, for every
// door-open attempt, whether the requester is entitled, mutates the failure
// counter, escalates to the alarm when warranted, and records every decision.
type AccessService struct {
	grants      GrantStore
	tracker     FailureTracker
	coordinator *IntrusionCoordinator
	door        DoorController
	audit       AuditLog
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAccessService wires dependencies for the access service.
func NewAccessService(
	grants GrantStore,
	tracker FailureTracker,
	coordinator *IntrusionCoordinator,
	door DoorController,
	audit AuditLog,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AccessService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if coordinator == nil {
		coordinator = NewIntrusionCoordinator(0)
	}
	return &AccessService{
		grants:      grants,
		tracker:     tracker,
		coordinator: coordinator,
		door:        door,
		audit:       audit,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AccessService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccessService", operation, attrs...)
}

// OpenDoor runs the authorization sequence for one door-open attempt.
//
// Exactly one door_open audit event is written per call, plus at most one
// alarm event when the attempt escalates. A nil return means the door was
// commanded open; ErrNotAuthorized and ErrActuatorUnreachable are the two
// caller-visible failure outcomes.
func (s *AccessService) OpenDoor(ctx context.Context, principal Principal) (err error) {
	if s == nil {
		return fmt.Errorf("AccessService is nil")
	}
	if s.grants == nil || s.audit == nil || s.door == nil || s.tracker == nil {
		return fmt.Errorf("access service not fully configured")
	}
	if principal.UserID == "" {
		return ErrUnauthenticated
	}

	logger := s.loggerWith(ctx, "OpenDoor", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "door open denied or failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "door opened")
	}()

	authorized, err := s.grants.IsAuthorized(ctx, principal.UserID)
	if err != nil {
		return err
	}

	if !authorized {
		return s.denyOpen(ctx, logger, principal)
	}

	s.tracker.Reset(principal.UserID)

	openErr := s.door.Open(ctx)
	if openErr != nil {
		detail := actuatorDetail(openErr)
		if err = s.append(ctx, &principal.UserID, EventDoorOpen, ResultError, &detail); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrActuatorUnreachable, detail)
	}

	return s.append(ctx, &principal.UserID, EventDoorOpen, ResultSuccess, nil)
}

// denyOpen records the refusal, advances the failure counter, and escalates
// to the alarm when the threshold is reached. The response to the requester
// is always ErrNotAuthorized; the alarm is a side effect, not the payload.
func (s *AccessService) denyOpen(ctx context.Context, logger *slog.Logger, principal Principal) error {
	refusal := "Non autorisé"
	if err := s.append(ctx, &principal.UserID, EventDoorOpen, ResultRefused, &refusal); err != nil {
		return err
	}

	count := s.tracker.RecordFailure(principal.UserID)
	logger.WarnContext(ctx, "unauthorized door open attempt", "failure_count", count)

	if s.coordinator.Evaluate(count) {
		s.tracker.Reset(principal.UserID)

		if alarmErr := s.door.SoundAlarm(ctx); alarmErr != nil {
			logger.ErrorContext(ctx, "failed to sound alarm during escalation", "error", alarmErr)
		} else {
			logger.WarnContext(ctx, "alarm triggered after repeated refusals", "threshold", s.coordinator.Threshold())
		}

		detail := fmt.Sprintf("Déclenchement automatique après %d tentatives refusées", s.coordinator.Threshold())
		if err := s.append(ctx, &principal.UserID, EventAlarm, ResultTriggered, &detail); err != nil {
			return err
		}
	}

	return ErrNotAuthorized
}

// TriggerAlarm manually sounds the alarm. Restricted to administrators.
func (s *AccessService) TriggerAlarm(ctx context.Context, principal Principal) error {
	if s == nil {
		return fmt.Errorf("AccessService is nil")
	}
	if !principal.IsAdmin() {
		return ErrForbidden
	}

	logger := s.loggerWith(ctx, "TriggerAlarm", "actor_id", principal.UserID)

	if alarmErr := s.door.SoundAlarm(ctx); alarmErr != nil {
		detail := actuatorDetail(alarmErr)
		logger.ErrorContext(ctx, "failed to trigger alarm", "error", alarmErr)
		if err := s.append(ctx, &principal.UserID, EventAlarm, ResultError, &detail); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrActuatorUnreachable, detail)
	}

	logger.InfoContext(ctx, "alarm triggered manually")
	return s.append(ctx, &principal.UserID, EventAlarm, ResultTriggered, nil)
}

// StopAlarm silences the alarm. Restricted to administrators.
func (s *AccessService) StopAlarm(ctx context.Context, principal Principal) error {
	if s == nil {
		return fmt.Errorf("AccessService is nil")
	}
	if !principal.IsAdmin() {
		return ErrForbidden
	}

	logger := s.loggerWith(ctx, "StopAlarm", "actor_id", principal.UserID)

	if stopErr := s.door.SilenceAlarm(ctx); stopErr != nil {
		detail := actuatorDetail(stopErr)
		logger.ErrorContext(ctx, "failed to stop alarm", "error", stopErr)
		if err := s.append(ctx, &principal.UserID, EventAlarm, ResultError, &detail); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrActuatorUnreachable, detail)
	}

	logger.InfoContext(ctx, "alarm stopped")
	return s.append(ctx, &principal.UserID, EventAlarm, ResultStopped, nil)
}

// AlarmStatus reports the controller's alarm state. Failures degrade to
// StateUnknown; this never raises to the caller.
func (s *AccessService) AlarmStatus(ctx context.Context, principal Principal) actuator.State {
	if s == nil || s.door == nil {
		return actuator.StateUnknown
	}
	if principal.UserID == "" {
		return actuator.StateUnknown
	}

	state, err := s.door.Status(ctx)
	if err != nil {
		s.loggerWith(ctx, "AlarmStatus").WarnContext(ctx, "alarm status query failed", "error", err)
		return actuator.StateUnknown
	}
	return state
}

// History lists audit events, most recent first.
func (s *AccessService) History(ctx context.Context, principal Principal, limit int) ([]AuditEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("AccessService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if s.audit == nil {
		return nil, nil
	}

	if limit <= 0 {
		limit = historyDefaultLimit
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	return s.audit.List(ctx, limit)
}

func (s *AccessService) append(ctx context.Context, userID *string, eventType, result string, details *string) error {
	return s.audit.Append(ctx, AuditEvent{
		ID:        s.idGenerator(),
		UserID:    userID,
		EventType: eventType,
		Result:    result,
		Details:   details,
		CreatedAt: s.now(),
	})
}

// actuatorDetail condenses a gateway failure into the short reason recorded
// in audit events.
func actuatorDetail(err error) string {
	var actErr *actuator.Error
	if errors.As(err, &actErr) {
		return actErr.Detail()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
