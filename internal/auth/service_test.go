package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/internal/testutil"
	pkgAuth "github.com/angelmondragon/foodgram-backend/pkg/auth"
	"github.com/angelmondragon/foodgram-backend/pkg/auth/session"
	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	redisclient "github.com/angelmondragon/foodgram-backend/pkg/redis"
	"github.com/angelmondragon/foodgram-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail   map[string]*models.User
	lastLogin map[uuid.UUID]time.Time
}

func newStubUserRepo(users ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}, lastLogin: map[uuid.UUID]time.Time{}}
	for _, u := range users {
		repo.byEmail[u.Email] = u
	}
	return repo
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.lastLogin[id] = at
	return nil
}

var testJWT = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "foodgram",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 120,
}

func buildTestService(t *testing.T, users ...*models.User) (Service, *stubUserRepo, *session.Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	manager, err := session.NewManager(client, testJWT)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	repo := newStubUserRepo(users...)
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: manager,
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, manager, mr
}

func newUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testutil.PasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     "cook",
		PasswordHash: hash,
		IsActive:     true,
	}
}

func TestLoginIssuesTokenPairAndSession(t *testing.T) {
	user := newUser(t, "cook@example.com", "ratatouille")
	svc, repo, manager, _ := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " COOK@example.com ", Password: "ratatouille"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AuthToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "cook" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	ok, err := manager.HasSession(context.Background(), claims.ID)
	if err != nil || !ok {
		t.Fatalf("expected session for jti, ok=%v err=%v", ok, err)
	}
	if _, recorded := repo.lastLogin[user.ID]; !recorded {
		t.Fatal("expected last login to be recorded")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	user := newUser(t, "cook@example.com", "ratatouille")
	inactive := newUser(t, "gone@example.com", "ratatouille")
	inactive.IsActive = false
	svc, _, _, _ := buildTestService(t, user, inactive)

	cases := []LoginRequest{
		{Email: "cook@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "ratatouille"},
		{Email: "gone@example.com", Password: "ratatouille"},
		{Email: "  ", Password: "ratatouille"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", req.Email, err)
		}
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	user := newUser(t, "cook@example.com", "ratatouille")
	svc, _, manager, _ := buildTestService(t, user)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: user.Email, Password: "ratatouille"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AuthToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if err := svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ok, _ := manager.HasSession(ctx, claims.ID); ok {
		t.Fatal("expected session to be revoked")
	}
	if err := svc.Logout(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty access id, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	user := newUser(t, "cook@example.com", "ratatouille")
	svc, _, manager, _ := buildTestService(t, user)
	ctx := context.Background()

	first, err := svc.Login(ctx, LoginRequest{Email: user.Email, Password: "ratatouille"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	firstClaims, _ := pkgAuth.ParseAccessToken(testJWT, first.AuthToken)

	second, err := svc.Refresh(ctx, RefreshRequest{AuthToken: first.AuthToken, RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	secondClaims, err := pkgAuth.ParseAccessToken(testJWT, second.AuthToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if secondClaims.ID == firstClaims.ID {
		t.Fatal("expected a new jti after refresh")
	}
	if ok, _ := manager.HasSession(ctx, firstClaims.ID); ok {
		t.Fatal("expected old session to be gone")
	}

	// the old refresh token cannot be replayed
	_, err = svc.Refresh(ctx, RefreshRequest{AuthToken: first.AuthToken, RefreshToken: first.RefreshToken})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized on replay, got %v", err)
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc, _, _, _ := buildTestService(t)
	_, err := svc.Refresh(context.Background(), RefreshRequest{AuthToken: "not-a-jwt", RefreshToken: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
