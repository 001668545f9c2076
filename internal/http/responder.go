package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/door-security/internal/application"
)

var (
	errBadRequestBody  = errors.New("Format de requête invalide.")
	errInvalidUserID   = errors.New("Identifiant d'utilisateur invalide.")
	errInvalidEntryID  = errors.New("Identifiant de demande invalide.")
	errMissingToken    = errors.New("Jeton d'authentification requis.")
	errTooManyRequests = errors.New("Trop de demandes. Réessayez plus tard.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthenticated):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_REQUIRED",
			Message:   "Authentification requise.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "Email ou mot de passe incorrect.",
		})
	case errors.Is(err, application.ErrNotAuthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "DOOR_NOT_AUTHORIZED",
			Message:   "Vous n'êtes pas autorisé à ouvrir la porte.",
		})
	case errors.Is(err, application.ErrAdminProtected):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "ADMIN_PROTECTED",
			Message:   "Impossible de supprimer un administrateur.",
		})
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "Vous n'avez pas les droits pour effectuer cette action.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "Ressource introuvable."})
	case errors.Is(err, application.ErrDuplicateEmail):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "USER_DUPLICATE_EMAIL",
			Message:   "Cet email est déjà utilisé.",
		})
	case errors.Is(err, application.ErrAlreadyGranted):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "GRANT_ALREADY_EXISTS",
			Message:   "Cet utilisateur est déjà autorisé.",
		})
	case errors.Is(err, application.ErrAlreadyResolved):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ENTRY_REQUEST_RESOLVED",
			Message:   "Cette demande a déjà été traitée.",
		})
	case errors.Is(err, application.ErrActuatorUnreachable):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{
			ErrorCode: "ACTUATOR_UNREACHABLE",
			Message:   "Le contrôleur de la porte est injoignable.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "Les données saisies sont invalides.",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Une erreur interne est survenue."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requête incorrecte."
	case http.StatusUnauthorized:
		return "Authentification requise."
	case http.StatusForbidden:
		return "Vous n'avez pas les droits pour effectuer cette action."
	case http.StatusNotFound:
		return "Ressource introuvable."
	case http.StatusConflict:
		return "La requête est en conflit avec l'état actuel de la ressource."
	case http.StatusUnprocessableEntity:
		return "Les données saisies sont invalides."
	case http.StatusTooManyRequests:
		return "Trop de demandes. Réessayez plus tard."
	default:
		return "Une erreur interne est survenue."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "email is required":
		return "L'email est obligatoire."
	case "email is invalid":
		return "Le format de l'email est invalide."
	case "password is required":
		return "Le mot de passe est obligatoire."
	case "name is required":
		return "Le nom est obligatoire."
	case "user id is required":
		return "L'identifiant d'utilisateur est obligatoire."
	case "request id is required":
		return "L'identifiant de demande est obligatoire."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
