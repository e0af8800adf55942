package handler

import (
	"net/http"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/service"
)

// SettingsHandler はサイト設定の HTTP ハンドラ
type SettingsHandler struct {
	settingsService service.SettingsService
}

// NewSettingsHandler は SettingsHandler を生成する
func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

type settingsResponse struct {
	Settings model.Settings `json:"settings"`
}

// Get は GET /api/settings を処理する
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.All(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "load settings", "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings})
}

// Update は PUT /api/admin/settings を処理する（認証必須）
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsResponse
	if !decodeJSON(w, r, &req) {
		return
	}
	settings, err := h.settingsService.Update(r.Context(), req.Settings)
	if err != nil {
		writeServiceError(w, r, err, "update settings", "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings})
}
