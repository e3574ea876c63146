package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjcjon/blog-backend/internal/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserExists indicates a registration attempt with a taken username.
	ErrUserExists = errors.New("users: user name already registered")
	// ErrInvalidCredentials covers unknown usernames and wrong passwords;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrMissingDatabase indicates the service was built without a store.
	ErrMissingDatabase = errors.New("users: database connection required")

	noOpLogger = zap.NewNop()
)

// ServiceConfig describes the dependencies for account management.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service manages account registration and credential checks.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, ErrMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// Register creates an account with a freshly hashed password. A taken
// username fails with ErrUserExists.
func (s *Service) Register(ctx context.Context, userName, rawPassword string) error {
	userName = normalize(userName)

	var existing User
	err := s.db.WithContext(ctx).Where("user_name = ?", userName).Take(&existing).Error
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("users: lookup failed: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users: password hash failed: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&User{UserName: userName, Password: string(hashed)}).Error; err != nil {
		// Concurrent registration can still hit the primary key.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		s.logger.Error("user insert failed", zap.String("user_name", userName), zap.Error(err))
		return fmt.Errorf("users: insert failed: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_name", userName))
	return nil
}

// Authenticate checks the supplied credentials and returns the account
// identity on success.
func (s *Service) Authenticate(ctx context.Context, userName, rawPassword string) (auth.Identity, error) {
	user, err := s.FindByUserName(ctx, normalize(userName))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, ErrInvalidCredentials
		}
		return auth.Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(rawPassword)); err != nil {
		return auth.Identity{}, ErrInvalidCredentials
	}

	return auth.Identity{UserName: user.UserName, Auth: user.Auth}, nil
}

// FindByUserName loads one account row. Absent accounts surface
// gorm.ErrRecordNotFound for the caller to map.
func (s *Service) FindByUserName(ctx context.Context, userName string) (User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("user_name = ?", userName).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, err
		}
		return User{}, fmt.Errorf("users: lookup failed: %w", err)
	}
	return user, nil
}
