package handler

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/service"
)

// InquiryHandler handles contact form submission and the admin inbox.
type InquiryHandler struct {
	inquiryService service.InquiryService
	maxAttachment  int64
}

// NewInquiryHandler creates an InquiryHandler. maxAttachment caps reply
// uploads; zero means service.MaxAttachmentBytes.
func NewInquiryHandler(inquiryService service.InquiryService, maxAttachment int64) *InquiryHandler {
	if maxAttachment <= 0 || maxAttachment > service.MaxAttachmentBytes {
		maxAttachment = service.MaxAttachmentBytes
	}
	return &InquiryHandler{inquiryService: inquiryService, maxAttachment: maxAttachment}
}

// submitRequest is the expected JSON body for POST /api/contact.
type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type submitResponse struct {
	OK       bool `json:"ok"`
	Notified bool `json:"notified"`
}

// Submit handles POST /api/contact.
// A stored inquiry is 201 even when the admin notification could not be sent.
func (h *InquiryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inq := &model.Inquiry{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}
	notified, err := h.inquiryService.Submit(r.Context(), inq)
	if err != nil {
		writeServiceError(w, r, err, "submit inquiry", "submit_failed")
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{OK: true, Notified: notified})
}

// adminListResponse is the JSON response for GET /api/admin/inquiries.
type adminListResponse struct {
	Inquiries []*model.Inquiry `json:"inquiries"`
}

// AdminList handles GET /api/admin/inquiries.
// Supports query params: status (all/new/read/replied/archived), limit, offset.
func (h *InquiryHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	opts := model.InquiryListOptions{
		Status: r.URL.Query().Get("status"),
		Limit:  20,
		Offset: 0,
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			opts.Limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	inquiries, err := h.inquiryService.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err, "list inquiries", "list_failed")
		return
	}
	writeJSON(w, http.StatusOK, adminListResponse{Inquiries: inquiries})
}

// AdminGet handles GET /api/admin/inquiries/{id}.
func (h *InquiryHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	inq, err := h.inquiryService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "get inquiry", "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, inq)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// AdminUpdateStatus handles PATCH /api/admin/inquiries/{id}/status.
func (h *InquiryHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.inquiryService.UpdateStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeServiceError(w, r, err, "update inquiry status", "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type replyRequest struct {
	Body   string `json:"body"`
	SentBy string `json:"sent_by"`
}

// replyResponse is the stored reply. Attachments are kept with the reply but
// not mailed, so AttachmentDelivered is false whenever a file was uploaded.
type replyResponse struct {
	*model.Reply
	AttachmentDelivered *bool `json:"attachment_delivered,omitempty"`
}

// AdminReply handles POST /api/admin/inquiries/{id}/reply.
// Accepts JSON, or multipart/form-data with body, sent_by and an optional
// attachment file.
func (h *InquiryHandler) AdminReply(w http.ResponseWriter, r *http.Request) {
	in := service.ReplyInput{InquiryID: r.PathValue("id")}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxAttachment+maxJSONBody)
		if err := r.ParseMultipartForm(h.maxAttachment); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusBadRequest, "attachment_too_large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_form")
			return
		}
		defer r.MultipartForm.RemoveAll()
		in.Body = r.FormValue("body")
		in.SentBy = r.FormValue("sent_by")

		file, header, err := r.FormFile("attachment")
		switch {
		case err == nil:
			defer file.Close()
			if header.Size > h.maxAttachment {
				writeError(w, http.StatusBadRequest, "attachment_too_large")
				return
			}
			in.Attachment = &service.Attachment{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Data:        file,
			}
		case errors.Is(err, http.ErrMissingFile):
		default:
			writeError(w, http.StatusBadRequest, "invalid_form")
			return
		}
	} else {
		var req replyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in.Body = req.Body
		in.SentBy = req.SentBy
	}

	reply, err := h.inquiryService.Reply(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "reply to inquiry", "reply_failed")
		return
	}
	resp := replyResponse{Reply: reply}
	if in.Attachment != nil {
		delivered := false
		resp.AttachmentDelivered = &delivered
	}
	writeJSON(w, http.StatusCreated, resp)
}

// AdminDelete handles DELETE /api/admin/inquiries/{id}. Replies go with it.
func (h *InquiryHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.inquiryService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "delete inquiry", "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminCounts handles GET /api/admin/inquiries/counts.
func (h *InquiryHandler) AdminCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.inquiryService.Counts(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "count inquiries", "counts_failed")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
