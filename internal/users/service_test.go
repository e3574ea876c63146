package users

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:users_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return service, db
}

func TestNewServiceRequiresDatabase(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	if !errors.Is(err, ErrMissingDatabase) {
		t.Fatalf("expected missing database error, got %v", err)
	}
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	service, db := newTestService(t)

	if err := service.Register(context.Background(), "ann", "secret-pass"); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	var stored User
	if err := db.Take(&stored).Error; err != nil {
		t.Fatalf("failed to load stored user: %v", err)
	}
	if stored.UserName != "ann" {
		t.Fatalf("unexpected user name: %q", stored.UserName)
	}
	if stored.Password == "secret-pass" {
		t.Fatalf("password must not be stored in clear text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret-pass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.Auth != 0 {
		t.Fatalf("new accounts must not be privileged, got auth %d", stored.Auth)
	}
}

func TestRegisterRejectsDuplicateUserName(t *testing.T) {
	service, _ := newTestService(t)

	if err := service.Register(context.Background(), "ann", "first"); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	err := service.Register(context.Background(), "ann", "second")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected duplicate user error, got %v", err)
	}
}

func TestAuthenticateReturnsIdentity(t *testing.T) {
	service, db := newTestService(t)

	if err := service.Register(context.Background(), "ann", "secret-pass"); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if err := db.Model(&User{}).Where("user_name = ?", "ann").Update("auth", AuthLevelAdmin).Error; err != nil {
		t.Fatalf("failed to promote user: %v", err)
	}

	identity, err := service.Authenticate(context.Background(), "ann", "secret-pass")
	if err != nil {
		t.Fatalf("unexpected authenticate error: %v", err)
	}
	if identity.UserName != "ann" || identity.Auth != AuthLevelAdmin {
		t.Fatalf("unexpected identity: %#v", identity)
	}
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	service, _ := newTestService(t)

	if err := service.Register(context.Background(), "ann", "secret-pass"); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	_, err := service.Authenticate(context.Background(), "ann", "not-the-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
}

func TestAuthenticateRejectsUnknownUser(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Authenticate(context.Background(), "nobody", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
}
