package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// UserStore captures the persistence operations needed by the user service.
type UserStore interface {
	CreateUser(ctx context.Context, account UserAccount) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserService orchestrates validation, authorization, and persistence for
// account management. Every operation is restricted to administrators.
type UserService struct {
	users        UserStore
	grants       GrantStore
	hashPassword func(password string) (string, error)
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserStore, grants GrantStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:  users,
		grants: grants,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and provisions a new regular account.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "actor_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	normalized := normalizeUserInput(params.Input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	hash, err := s.hashPassword(normalized.Password)
	if err != nil {
		return
	}

	account := UserAccount{
		User: User{
			ID:        s.idGenerator(),
			Email:     normalized.Email,
			Name:      normalized.Name,
			Role:      RoleUser,
			CreatedAt: s.now(),
		},
		PasswordHash: hash,
	}

	user, err = s.users.CreateUser(ctx, account)
	return
}

// ListUsers returns every account, annotated with its door authorization.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	if s.grants != nil {
		granted, err := s.grants.ListGrantedUsers(ctx)
		if err != nil {
			return nil, err
		}
		authorized := make(map[string]struct{}, len(granted))
		for _, g := range granted {
			authorized[g.UserID] = struct{}{}
		}
		for i := range users {
			_, users[i].Authorized = authorized[users[i].ID]
		}
	}

	return users, nil
}

// DeleteUser removes a regular account. Administrators cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return ErrForbidden
	}
	if s.users == nil {
		return fmt.Errorf("user store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser", "actor_id", principal.UserID, "user_id", userID)

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == RoleAdmin {
		logger.ErrorContext(ctx, "refused to delete administrator", "error_kind", ErrorKind(ErrAdminProtected))
		return ErrAdminProtected
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
		Name:     strings.TrimSpace(input.Name),
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.Password == "" {
		vErr.add("password", "password is required")
	}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}

	return vErr
}
