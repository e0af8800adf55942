package handler

import (
	"net/http"
	"time"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/service"
	"github.com/sitecraft/backend/pkg/auth"
)

// AuthHandler は管理者ログイン関連の HTTP ハンドラ
type AuthHandler struct {
	authService  service.AuthService
	sessionTTL   time.Duration
	cookieSecure bool
}

// NewAuthHandler は AuthHandler を生成する
func NewAuthHandler(authService service.AuthService, sessionTTL time.Duration, cookieSecure bool) *AuthHandler {
	if sessionTTL <= 0 {
		sessionTTL = auth.DefaultSessionTTL
	}
	return &AuthHandler{authService: authService, sessionTTL: sessionTTL, cookieSecure: cookieSecure}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	Admin *model.AdminUser `json:"admin"`
}

// Login は POST /api/admin/login を処理する。成功時はセッションクッキーを発行する
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	admin, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "admin login", "login_failed")
		return
	}
	http.SetCookie(w, auth.SessionCookie(token, h.sessionTTL, h.cookieSecure))
	writeJSON(w, http.StatusOK, meResponse{Admin: admin})
}

// Logout は POST /api/admin/logout を処理する
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie(h.cookieSecure))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me は GET /api/admin/me を処理する（認証必須）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.AdminIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	admin, err := h.authService.Me(r.Context(), adminID)
	if err != nil {
		writeServiceError(w, r, err, "load admin", "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Admin: admin})
}
