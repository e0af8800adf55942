package handler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sitecraft/backend/internal/storage"
)

const maxImageSize = 5 << 20 // 5 MB

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// uploadFolders are the key prefixes an admin may upload into.
var uploadFolders = map[string]bool{
	"services": true,
	"products": true,
	"clients":  true,
	"projects": true,
	"gallery":  true,
	"site":     true,
}

// UploadHandler はカタログ画像のアップロードを処理する
type UploadHandler struct {
	storage storage.Storage
	maxSize int64
}

// NewUploadHandler は UploadHandler を生成する。maxSize が 0 以下なら 5MB
func NewUploadHandler(store storage.Storage, maxSize int64) *UploadHandler {
	if maxSize <= 0 {
		maxSize = maxImageSize
	}
	return &UploadHandler{storage: store, maxSize: maxSize}
}

// Upload は POST /api/admin/uploads を処理する。
// フォーム: image（必須）, folder（任意、既定 "site"）
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+maxJSONBody)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file_too_large")
		return
	}
	defer r.MultipartForm.RemoveAll()

	folder := r.FormValue("folder")
	if folder == "" {
		folder = "site"
	}
	if !uploadFolders[folder] {
		writeError(w, http.StatusBadRequest, "folder_invalid")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image_required")
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		writeError(w, http.StatusBadRequest, "file_too_large")
		return
	}

	// 宣言された Content-Type ではなく先頭バイトで判定する
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "image_required")
		return
	}
	head = head[:n]
	ct := http.DetectContentType(head)
	ext, ok := allowedContentTypes[ct]
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_content_type")
		return
	}

	key := storage.NewKey(folder, "image"+ext)
	url, err := h.storage.Save(r.Context(), key, io.MultiReader(bytes.NewReader(head), file), ct)
	if err != nil {
		slog.Error("image upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "upload_failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url, "key": key})
}
