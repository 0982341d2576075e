package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/requestdata"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)
	return NewAuthService(db, log,
		repos.NewUserRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		"test-secret",
		time.Hour,
		24*time.Hour,
	)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "Rider@Example.com", "hunter22!", "Rider")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Email != "rider@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Password == "hunter22!" {
		t.Fatalf("password stored in plaintext")
	}

	if _, err := svc.RegisterUser(ctx, "rider@example.com", "another-pass", "Other"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate register err = %v, want ErrEmailTaken", err)
	}

	access, refresh, err := svc.LoginUser(ctx, "rider@example.com", "hunter22!")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if access == "" || refresh == "" || access == refresh {
		t.Fatalf("login returned bad token pair")
	}

	if _, _, err := svc.LoginUser(ctx, "rider@example.com", "wrong"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("bad password err = %v, want ErrInvalidLogin", err)
	}
	if _, _, err := svc.LoginUser(ctx, "nobody@example.com", "hunter22!"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("unknown email err = %v, want ErrInvalidLogin", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "not-an-email", "longenough", "Name"); err == nil {
		t.Fatalf("accepted invalid email")
	}
	if _, err := svc.RegisterUser(ctx, "a@b.com", "short", "Name"); err == nil {
		t.Fatalf("accepted short password")
	}
	if _, err := svc.RegisterUser(ctx, "a@b.com", "longenough", ""); err == nil {
		t.Fatalf("accepted empty name")
	}
}

func TestSetContextFromToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "solver@example.com", "hunter22!", "Solver")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	access, _, err := svc.LoginUser(ctx, "solver@example.com", "hunter22!")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	authed, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authed)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("context carries wrong user: %+v", rd)
	}

	if _, err := svc.SetContextFromToken(ctx, "garbage.token.here"); err == nil {
		t.Fatalf("accepted a malformed token")
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "bye@example.com", "hunter22!", "Bye"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	access, _, err := svc.LoginUser(ctx, "bye@example.com", "hunter22!")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	authed, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if err := svc.LogoutUser(authed); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}

	// The revoked token no longer resolves.
	if _, err := svc.SetContextFromToken(ctx, access); err == nil {
		t.Fatalf("revoked token still accepted")
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "rotate@example.com", "hunter22!", "Rotate"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	access, _, err := svc.LoginUser(ctx, "rotate@example.com", "hunter22!")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	authed, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}

	newAccess, newRefresh, err := svc.RefreshUser(authed)
	if err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	if newAccess == "" || newRefresh == "" {
		t.Fatalf("refresh returned empty tokens")
	}

	// The old access token was rotated out.
	if _, err := svc.SetContextFromToken(ctx, access); err == nil {
		t.Fatalf("pre-refresh token still accepted")
	}
	if _, err := svc.SetContextFromToken(ctx, newAccess); err != nil {
		t.Fatalf("post-refresh token rejected: %v", err)
	}
}

func TestLogoutWithoutIdentity(t *testing.T) {
	svc := newAuthService(t)
	if err := svc.LogoutUser(context.Background()); err == nil {
		t.Fatalf("logout without identity must fail")
	}
}
