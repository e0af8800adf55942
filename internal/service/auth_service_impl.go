package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/repository"
	"github.com/sitecraft/backend/pkg/auth"
)

// AuthServiceImpl は AuthService の実装
type AuthServiceImpl struct {
	adminRepo repository.AdminUserRepository
	secret    []byte
	ttl       time.Duration
}

// NewAuthService は AuthServiceImpl を生成する（DI: AdminUserRepository とセッション署名鍵を注入）
func NewAuthService(adminRepo repository.AdminUserRepository, secret []byte, ttl time.Duration) AuthService {
	return &AuthServiceImpl{adminRepo: adminRepo, secret: secret, ttl: ttl}
}

// Login は email とパスワードを検証しセッショントークンを発行する
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*model.AdminUser, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	u, err := s.adminRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Info("admin login rejected", "reason", "unknown_email")
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("find admin: %w", err)
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		slog.Info("admin login rejected", "reason", "wrong_password", "admin_id", u.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.CreateSessionToken(u.ID, s.secret, s.ttl)
	if err != nil {
		return nil, "", fmt.Errorf("sign session: %w", err)
	}
	if err := s.adminRepo.TouchLogin(ctx, u.ID); err != nil {
		slog.Warn("touch admin login failed", "admin_id", u.ID, "error", err)
	}
	slog.Info("admin logged in", "admin_id", u.ID)
	return u, token, nil
}

func (s *AuthServiceImpl) Me(ctx context.Context, adminID string) (*model.AdminUser, error) {
	u, err := s.adminRepo.FindByID(ctx, adminID)
	return u, mapRepoErr(err)
}

// CreateAdmin は管理者を作成する。パスワードは bcrypt でハッシュ化して保存する
func (s *AuthServiceImpl) CreateAdmin(ctx context.Context, email, name, password string) (*model.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, invalid("email", "invalid")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, invalid("password", "too_short")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.AdminUser{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}
	if err := s.adminRepo.Create(ctx, u); err != nil {
		return nil, mapRepoErr(err)
	}
	slog.Info("admin created", "admin_id", u.ID)
	return u, nil
}

func (s *AuthServiceImpl) SetPassword(ctx context.Context, email, password string) error {
	if len(password) < auth.MinPasswordLength {
		return invalid("password", "too_short")
	}
	u, err := s.adminRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return mapRepoErr(err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return mapRepoErr(s.adminRepo.UpdatePassword(ctx, u.ID, hash))
}
