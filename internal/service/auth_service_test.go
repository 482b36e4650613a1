package service

import (
	"errors"
	"testing"
	"time"

	"github.com/bakehouse-api/internal/config"
	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/repository"
)

func newAuthServiceTest(t *testing.T) (*AuthService, repository.AdminRepository) {
	t.Helper()
	db := setupServiceTestDB(t)
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("auto migrate admin failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "auth-service-test-secret-0123456789abc"
	cfg.JWT.ExpireHours = 2
	adminRepo := repository.NewAdminRepository(db)
	return NewAuthService(cfg, adminRepo), adminRepo
}

func TestAuthLoginSuccess(t *testing.T) {
	svc, adminRepo := newAuthServiceTest(t)

	hash, err := svc.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	if err := adminRepo.Create(&models.Admin{Username: "ops", PasswordHash: hash}); err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	admin, token, expiresAt, err := svc.Login("ops", "s3cret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if admin.Username != "ops" || token == "" {
		t.Fatalf("unexpected login result: admin=%+v token=%q", admin, token)
	}
	if !expiresAt.After(time.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", expiresAt)
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "ops" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// 登录成功后记录最后登录时间
	reloaded, err := adminRepo.GetByID(admin.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload admin failed: %v", err)
	}
	if reloaded.LastLoginAt == nil {
		t.Fatalf("expected last_login_at recorded")
	}
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	svc, adminRepo := newAuthServiceTest(t)

	hash, err := svc.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	if err := adminRepo.Create(&models.Admin{Username: "ops", PasswordHash: hash}); err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	if _, _, _, err := svc.Login("ops", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got: %v", err)
	}
	if _, _, _, err := svc.Login("nobody", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got: %v", err)
	}
}

func TestParseJWTRejectsTamperedToken(t *testing.T) {
	svc, _ := newAuthServiceTest(t)

	token, _, err := svc.GenerateJWT(&models.Admin{Username: "ops"})
	if err != nil {
		t.Fatalf("generate jwt failed: %v", err)
	}
	if _, err := svc.ParseJWT(token + "x"); err == nil {
		t.Fatalf("expected error for tampered token")
	}

	other := &config.Config{}
	other.JWT.SecretKey = "another-secret-key-9876543210zyxwvu"
	other.JWT.ExpireHours = 1
	otherSvc := NewAuthService(other, nil)
	if _, err := otherSvc.ParseJWT(token); err == nil {
		t.Fatalf("expected error for token signed with different secret")
	}
}
