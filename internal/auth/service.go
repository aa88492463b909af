package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/internal/users"
	pkgauth "github.com/pawdx/vetlab-backend/pkg/auth"
	"github.com/pawdx/vetlab-backend/pkg/auth/session"
	"github.com/pawdx/vetlab-backend/pkg/config"
	pkgdb "github.com/pawdx/vetlab-backend/pkg/db"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/security"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes the account lifecycle: registration, login, token refresh,
// and logout.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*TokenPair, *models.User, error)
	Login(ctx context.Context, input LoginInput) (*TokenPair, *models.User, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

// RegisterInput carries the fields required to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// LoginInput identifies the account by phone or email plus password.
type LoginInput struct {
	Phone    string
	Email    string
	Password string
}

// TokenPair is the access/refresh credential set handed to clients.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type service struct {
	repo     users.Repository
	sessions sessionManager
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(repo users.Repository, sessions sessionManager, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*TokenPair, *models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := normalizePhone(input.Phone)

	if name == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if email == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if phone == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if len(input.Password) < 8 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this phone or email already exists")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	pair, err := s.issueTokens(ctx, created)
	if err != nil {
		return nil, nil, err
	}
	return pair, created, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*TokenPair, *models.User, error) {
	user, err := s.findAccount(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}
	if user.IsLocked {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is locked after repeated failed logins")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		if incErr := s.repo.IncrementFailedLogins(ctx, user.ID, s.pwCfg.MaxLoginAttempts); incErr != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, incErr, "record failed login")
		}
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	if user.FailedLoginAttempts > 0 {
		if resetErr := s.repo.ResetFailedLogins(ctx, user.ID); resetErr != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, resetErr, "reset failed logins")
		}
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) findAccount(ctx context.Context, input LoginInput) (*models.User, error) {
	phone := normalizePhone(input.Phone)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var (
		user *models.User
		err  error
	)
	switch {
	case phone != "":
		user, err = s.repo.FindByPhone(ctx, phone)
	case email != "":
		user, err = s.repo.FindByEmail(ctx, email)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone or email is required")
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	return phone
}
