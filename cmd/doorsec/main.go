package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/example/door-security/internal/actuator"
	"github.com/example/door-security/internal/application"
	"github.com/example/door-security/internal/config"
	httptransport "github.com/example/door-security/internal/http"
	"github.com/example/door-security/internal/persistence"
	"github.com/example/door-security/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	userRepo := sqlite.NewUserRepository(storage)
	grantRepo := sqlite.NewGrantRepository(storage)
	auditRepo := sqlite.NewAuditRepository(storage)
	entryRepo := sqlite.NewEntryRequestRepository(storage)

	if err := seedAdmin(ctx, cfg, userRepo, idGenerator, now, logger); err != nil {
		logger.Error("failed to seed administrator account", "error", err)
		os.Exit(1)
	}

	credentials := newCredentialStoreAdapter(userRepo)
	userStore := newUserStoreAdapter(userRepo)
	grantStore := newGrantStoreAdapter(grantRepo)
	auditLog := newAuditLogAdapter(auditRepo)
	entryStore := newEntryRequestStoreAdapter(entryRepo)

	door := actuator.NewGateway(cfg.ActuatorBaseURL, cfg.ActuatorTimeout, logger)
	tokens := application.NewTokenService(cfg.TokenSecret, cfg.TokenTTL, now)
	tracker := application.NewMemoryFailureTracker(cfg.FailureWindow, now)
	coordinator := application.NewIntrusionCoordinator(cfg.FailureThreshold)

	authService := application.NewAuthService(credentials, nil, tokens, logger)
	userService := application.NewUserService(userStore, grantStore, idGenerator, now, logger)
	authorizationService := application.NewAuthorizationService(grantStore, idGenerator, now, logger)
	accessService := application.NewAccessService(grantStore, tracker, coordinator, door, auditLog, idGenerator, now, logger)
	entryService := application.NewEntryRequestService(entryStore, auditLog, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Grants:        httptransport.NewGrantHandler(authorizationService, logger),
		Access:        httptransport.NewAccessHandler(accessService, logger),
		EntryRequests: httptransport.NewEntryRequestHandler(entryService, logger),
		RequireAuth:   httptransport.RequireAuth(tokens, logger),
		RateLimit:     httptransport.RateLimitByClient(rate.Limit(cfg.EntryRequestRate), cfg.EntryRequestBurst, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("door security API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// seedAdmin creates the initial administrator account when the user table is
// empty and the bootstrap credentials are configured.
func seedAdmin(ctx context.Context, cfg config.Config, users persistence.UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	count, err := users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := application.CreatePasswordHash(cfg.AdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		return err
	}
	admin := persistence.User{
		ID:           idGenerator(),
		Email:        cfg.AdminEmail,
		Name:         "Administrateur",
		PasswordHash: hash,
		Role:         application.RoleAdmin,
		CreatedAt:    now().UTC(),
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		return err
	}
	logger.Info("seeded administrator account", "email", cfg.AdminEmail)
	return nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetAccountByEmail(ctx context.Context, email string) (application.UserAccount, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserAccount{}, translateLookupError(err)
	}
	return application.UserAccount{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

type userStoreAdapter struct {
	repo persistence.UserRepository
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{repo: repo}
}

func (a *userStoreAdapter) CreateUser(ctx context.Context, account application.UserAccount) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(account)); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return application.User{}, application.ErrDuplicateEmail
		}
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, account.User.ID)
	if err != nil {
		return application.User{}, translateLookupError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, translateLookupError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *userStoreAdapter) DeleteUser(ctx context.Context, id string) error {
	if err := a.repo.DeleteUser(ctx, id); err != nil {
		return translateLookupError(err)
	}
	return nil
}

type grantStoreAdapter struct {
	repo persistence.GrantRepository
}

func newGrantStoreAdapter(repo persistence.GrantRepository) *grantStoreAdapter {
	return &grantStoreAdapter{repo: repo}
}

func (a *grantStoreAdapter) IsAuthorized(ctx context.Context, userID string) (bool, error) {
	return a.repo.IsAuthorized(ctx, userID)
}

func (a *grantStoreAdapter) CreateGrant(ctx context.Context, grantID, userID string, grantedAt time.Time) error {
	grant := persistence.AuthorizationGrant{ID: grantID, UserID: userID, CreatedAt: grantedAt}
	if err := a.repo.CreateGrant(ctx, grant); err != nil {
		switch {
		case errors.Is(err, persistence.ErrDuplicate):
			return application.ErrAlreadyGranted
		case errors.Is(err, persistence.ErrForeignKeyViolation):
			return application.ErrNotFound
		}
		return err
	}
	return nil
}

func (a *grantStoreAdapter) DeleteGrant(ctx context.Context, userID string) error {
	return a.repo.DeleteGrant(ctx, userID)
}

func (a *grantStoreAdapter) ListGrantedUsers(ctx context.Context) ([]application.GrantedUser, error) {
	models, err := a.repo.ListGrantedUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	granted := make([]application.GrantedUser, 0, len(models))
	for _, model := range models {
		granted = append(granted, application.GrantedUser{
			UserID:    model.UserID,
			Email:     model.Email,
			Name:      model.Name,
			GrantedAt: model.GrantedAt,
		})
	}
	return granted, nil
}

type auditLogAdapter struct {
	repo persistence.AuditRepository
}

func newAuditLogAdapter(repo persistence.AuditRepository) *auditLogAdapter {
	return &auditLogAdapter{repo: repo}
}

func (a *auditLogAdapter) Append(ctx context.Context, event application.AuditEvent) error {
	return a.repo.AppendEvent(ctx, persistence.AuditEvent{
		ID:        event.ID,
		UserID:    cloneString(event.UserID),
		EventType: event.EventType,
		Result:    event.Result,
		Details:   cloneString(event.Details),
		CreatedAt: event.CreatedAt,
	})
}

func (a *auditLogAdapter) List(ctx context.Context, limit int) ([]application.AuditEntry, error) {
	models, err := a.repo.ListEvents(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	entries := make([]application.AuditEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, application.AuditEntry{
			Event: application.AuditEvent{
				ID:        model.Event.ID,
				UserID:    cloneString(model.Event.UserID),
				EventType: model.Event.EventType,
				Result:    model.Event.Result,
				Details:   cloneString(model.Event.Details),
				CreatedAt: model.Event.CreatedAt,
			},
			UserName:  cloneString(model.UserName),
			UserEmail: cloneString(model.UserEmail),
		})
	}
	return entries, nil
}

type entryRequestStoreAdapter struct {
	repo persistence.EntryRequestRepository
}

func newEntryRequestStoreAdapter(repo persistence.EntryRequestRepository) *entryRequestStoreAdapter {
	return &entryRequestStoreAdapter{repo: repo}
}

func (a *entryRequestStoreAdapter) CreateEntryRequest(ctx context.Context, request application.EntryRequest) error {
	return a.repo.CreateEntryRequest(ctx, toPersistenceEntryRequest(request))
}

func (a *entryRequestStoreAdapter) GetEntryRequest(ctx context.Context, id string) (application.EntryRequest, error) {
	stored, err := a.repo.GetEntryRequest(ctx, id)
	if err != nil {
		return application.EntryRequest{}, translateLookupError(err)
	}
	return toApplicationEntryRequest(stored), nil
}

func (a *entryRequestStoreAdapter) ListPendingEntryRequests(ctx context.Context) ([]application.EntryRequest, error) {
	models, err := a.repo.ListPendingEntryRequests(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	requests := make([]application.EntryRequest, 0, len(models))
	for _, model := range models {
		requests = append(requests, toApplicationEntryRequest(model))
	}
	return requests, nil
}

func (a *entryRequestStoreAdapter) ResolveEntryRequest(ctx context.Context, id, status, respondedBy string, respondedAt time.Time) error {
	if err := a.repo.ResolveEntryRequest(ctx, id, status, respondedBy, respondedAt); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			return application.ErrNotFound
		case errors.Is(err, persistence.ErrConstraintViolation):
			return application.ErrAlreadyResolved
		}
		return err
	}
	return nil
}

func translateLookupError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return application.ErrNotFound
	}
	return err
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.Name,
		Role:      model.Role,
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceUser(account application.UserAccount) persistence.User {
	return persistence.User{
		ID:           account.User.ID,
		Email:        account.User.Email,
		Name:         account.User.Name,
		PasswordHash: account.PasswordHash,
		Role:         account.User.Role,
		CreatedAt:    account.User.CreatedAt,
	}
}

func toApplicationEntryRequest(model persistence.EntryRequest) application.EntryRequest {
	return application.EntryRequest{
		ID:           model.ID,
		VisitorName:  model.VisitorName,
		VisitorPhone: cloneString(model.VisitorPhone),
		Status:       model.Status,
		RespondedBy:  cloneString(model.RespondedBy),
		RespondedAt:  cloneTime(model.RespondedAt),
		CreatedAt:    model.CreatedAt,
	}
}

func toPersistenceEntryRequest(request application.EntryRequest) persistence.EntryRequest {
	return persistence.EntryRequest{
		ID:           request.ID,
		VisitorName:  request.VisitorName,
		VisitorPhone: cloneString(request.VisitorPhone),
		Status:       request.Status,
		RespondedBy:  cloneString(request.RespondedBy),
		RespondedAt:  cloneTime(request.RespondedAt),
		CreatedAt:    request.CreatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
