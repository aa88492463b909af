package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/pawdx/vetlab-backend/pkg/auth"
	"github.com/pawdx/vetlab-backend/pkg/auth/session"
	"github.com/pawdx/vetlab-backend/pkg/config"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/security"
)

var (
	testJWTCfg = config.JWTConfig{Secret: "secret", Issuer: "vetlab", ExpirationMinutes: 30, RefreshTokenTTLMinutes: 60}
	testPWCfg  = config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
		MaxLoginAttempts: 3,
	}
)

type stubUserRepo struct {
	byPhone    map[string]*models.User
	byEmail    map[string]*models.User
	byID       map[uuid.UUID]*models.User
	created    *models.User
	createErr  error
	increments int
	resets     int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byPhone: map[string]*models.User{},
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (s *stubUserRepo) add(user *models.User) {
	s.byPhone[user.Phone] = user
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *stubUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user.ID = uuid.New()
	s.created = user
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	if user, ok := s.byPhone[phone]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Update(_ context.Context, _ *models.User) error { return nil }

func (s *stubUserRepo) IncrementFailedLogins(_ context.Context, id uuid.UUID, threshold int) error {
	s.increments++
	if user, ok := s.byID[id]; ok {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= threshold {
			user.IsLocked = true
		}
	}
	return nil
}

func (s *stubUserRepo) ResetFailedLogins(_ context.Context, id uuid.UUID) error {
	s.resets++
	if user, ok := s.byID[id]; ok {
		user.FailedLoginAttempts = 0
		user.IsLocked = false
	}
	return nil
}

type stubSessions struct {
	revoked   []string
	rotateErr error
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	return "refresh-for-" + accessID, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	if provided != "refresh-for-"+oldAccessID {
		return "", "", session.ErrInvalidRefreshToken
	}
	next := uuid.NewString()
	return next, "refresh-for-" + next, nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func mustService(t *testing.T, repo *stubUserRepo, sessions *stubSessions) Service {
	t.Helper()
	svc, err := NewService(repo, sessions, testJWTCfg, testPWCfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPWCfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	domainErr := pkgerrors.As(err)
	if domainErr == nil {
		t.Fatalf("expected domain error, got %v", err)
	}
	if domainErr.Code() != code {
		t.Fatalf("expected code %s, got %s", code, domainErr.Code())
	}
}

func TestRegisterIssuesTokens(t *testing.T) {
	repo := newStubUserRepo()
	svc := mustService(t, repo, &stubSessions{})

	pair, user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha Rao",
		Email:    "Asha@Example.com",
		Phone:    "+91 98765 43210",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if user.Email != "asha@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.Phone != "+919876543210" {
		t.Fatalf("phone not normalized: %s", user.Phone)
	}
	if user.Role != enums.UserRoleUser {
		t.Fatalf("unexpected role %s", user.Role)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTCfg, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatal("claims user id mismatch")
	}
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "users_phone_key"`)
	svc := mustService(t, repo, &stubSessions{})

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@b.c", Phone: "123", Password: "longenough",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginWrongPasswordCountsAttempt(t *testing.T) {
	repo := newStubUserRepo()
	user := &models.User{ID: uuid.New(), Phone: "123", Email: "a@b.c", PasswordHash: hashFor(t, "right-password"), Role: enums.UserRoleUser, IsActive: true}
	repo.add(user)
	svc := mustService(t, repo, &stubSessions{})

	_, _, err := svc.Login(context.Background(), LoginInput{Phone: "123", Password: "wrong"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
	if repo.increments != 1 {
		t.Fatalf("expected 1 increment, got %d", repo.increments)
	}
}

func TestLoginLockedAccountForbidden(t *testing.T) {
	repo := newStubUserRepo()
	user := &models.User{ID: uuid.New(), Phone: "123", Email: "a@b.c", PasswordHash: hashFor(t, "right-password"), Role: enums.UserRoleUser, IsActive: true, IsLocked: true}
	repo.add(user)
	svc := mustService(t, repo, &stubSessions{})

	_, _, err := svc.Login(context.Background(), LoginInput{Phone: "123", Password: "right-password"})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	repo := newStubUserRepo()
	user := &models.User{ID: uuid.New(), Phone: "123", Email: "a@b.c", PasswordHash: hashFor(t, "right-password"), Role: enums.UserRoleUser, IsActive: true, FailedLoginAttempts: 2}
	repo.add(user)
	svc := mustService(t, repo, &stubSessions{})

	pair, _, err := svc.Login(context.Background(), LoginInput{Phone: "123", Password: "right-password"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if repo.resets != 1 {
		t.Fatalf("expected counter reset, got %d", repo.resets)
	}
}

func TestRefreshRejectsBadToken(t *testing.T) {
	repo := newStubUserRepo()
	user := &models.User{ID: uuid.New(), Phone: "123", Email: "a@b.c", PasswordHash: hashFor(t, "pw-not-used"), Role: enums.UserRoleUser, IsActive: true}
	repo.add(user)
	svc := mustService(t, repo, &stubSessions{})

	access, err := pkgauth.MintAccessToken(testJWTCfg, time.Now(), pkgauth.AccessTokenPayload{UserID: user.ID, Role: user.Role, JTI: "jti-1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = svc.Refresh(context.Background(), access, "not-the-refresh-token")
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newStubUserRepo()
	user := &models.User{ID: uuid.New(), Phone: "123", Email: "a@b.c", PasswordHash: hashFor(t, "pw-not-used"), Role: enums.UserRoleUser, IsActive: true}
	repo.add(user)
	svc := mustService(t, repo, &stubSessions{})

	access, err := pkgauth.MintAccessToken(testJWTCfg, time.Now(), pkgauth.AccessTokenPayload{UserID: user.ID, Role: user.Role, JTI: "jti-1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), access, "refresh-for-jti-1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected rotated pair")
	}
	if pair.RefreshToken == "refresh-for-jti-1" {
		t.Fatal("refresh token was not rotated")
	}
}
