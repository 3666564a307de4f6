package blog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"stitchtales/internal/auth"
	"stitchtales/internal/models"
	"stitchtales/internal/store"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,max=150,username"`
	Email       string `json:"email" validate:"required,max=254,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// Accounts handles registration, password login and TOTP enrolment.
type Accounts struct {
	users *store.UserStore
}

// NewAccounts creates the account service.
func NewAccounts(users *store.UserStore) *Accounts {
	return &Accounts{users: users}
}

// Register creates an author account.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := check(in); err != nil {
		return nil, err
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Username
	}

	u, err := a.users.Create(ctx, in.Username, in.Email, in.Password, in.DisplayName, models.RoleAuthor)
	if errors.Is(err, store.ErrUserExists) {
		return nil, &ConflictError{Field: "username", Message: "A user with that username or email already exists."}
	}
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Authenticate checks a username (or email) and password.
func (a *Accounts) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		u   *models.User
		err error
	)
	if strings.Contains(login, "@") {
		u, err = a.users.FindByEmail(ctx, strings.ToLower(login))
	} else {
		u, err = a.users.FindByUsername(ctx, login)
	}
	if err != nil {
		return nil, err
	}
	if u == nil || !a.users.CheckPassword(u, password) {
		slog.Warn("failed login", "login", login)
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// User loads the account behind a session or token. A deleted account
// yields (nil, nil).
func (a *Accounts) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return a.users.FindByID(ctx, id)
}

// BeginTOTP generates and stores a new TOTP secret for user. 2FA is not
// active until EnableTOTP confirms a code from it.
func (a *Accounts) BeginTOTP(ctx context.Context, user *models.User) (*auth.Enrollment, error) {
	if user == nil {
		return nil, &PermissionError{Action: "set up two-factor authentication"}
	}
	if user.TOTPEnabled {
		return nil, &ConflictError{Field: "totp", Message: "Two-factor authentication is already enabled."}
	}
	enr, err := auth.NewEnrollment(user.Username)
	if err != nil {
		return nil, err
	}
	if err := a.users.SetTOTPSecret(ctx, user.ID, enr.Secret); err != nil {
		return nil, err
	}
	return enr, nil
}

// EnableTOTP activates 2FA once code matches the pending secret.
func (a *Accounts) EnableTOTP(ctx context.Context, user *models.User, code string) error {
	if user == nil {
		return &PermissionError{Action: "enable two-factor authentication"}
	}
	if user.TOTPSecret == nil {
		return invalid("code", "Start two-factor setup first.")
	}
	if !auth.ValidateCode(strings.TrimSpace(code), *user.TOTPSecret) {
		return invalid("code", "Invalid code.")
	}
	if err := a.users.EnableTOTP(ctx, user.ID); err != nil {
		return err
	}
	slog.Info("2fa enabled", "user_id", user.ID)
	return nil
}

// VerifyTOTP checks a second-factor code during login.
func (a *Accounts) VerifyTOTP(user *models.User, code string) error {
	if user == nil || !user.TOTPEnabled || user.TOTPSecret == nil {
		return ErrInvalidCredentials
	}
	if !auth.ValidateCode(strings.TrimSpace(code), *user.TOTPSecret) {
		return ErrInvalidCredentials
	}
	return nil
}
