package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

const adminIDKey contextKey = "admin_id"

// AdminIDFromContext は context から管理者IDを取得する
func AdminIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminIDKey).(string)
	return v, ok && v != ""
}

// WithAdminID は context に管理者IDをセットする
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDKey, adminID)
}

// RequireAdmin は認証必須ミドルウェア。クッキーまたは Bearer トークンを検証し、管理者IDを context にセットする
func RequireAdmin(sessionSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w, "unauthorized")
				return
			}

			adminID, err := VerifySessionToken(token, sessionSecret)
			if err != nil {
				unauthorized(w, "invalid_session")
				return
			}

			ctx := WithAdminID(r.Context(), adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
