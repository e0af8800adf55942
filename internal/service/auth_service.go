package service

import (
	"context"

	"github.com/sitecraft/backend/internal/model"
)

// AuthService は管理者認証に関するビジネスロジックのインターフェース
type AuthService interface {
	// Login checks the credentials and returns the admin and a signed session token.
	Login(ctx context.Context, email, password string) (*model.AdminUser, string, error)
	// Me returns the admin for a verified session.
	Me(ctx context.Context, adminID string) (*model.AdminUser, error)
	// CreateAdmin registers a new admin account.
	CreateAdmin(ctx context.Context, email, name, password string) (*model.AdminUser, error)
	// SetPassword replaces the password of the admin with the given email.
	SetPassword(ctx context.Context, email, password string) error
}
