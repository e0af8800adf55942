package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/service"
)

// ---------------------------------------------------------------------------
// Mock InquiryService
// ---------------------------------------------------------------------------

type mockInquiryService struct {
	submitFunc       func(ctx context.Context, inq *model.Inquiry) (bool, error)
	listFunc         func(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error)
	getFunc          func(ctx context.Context, id string) (*model.Inquiry, error)
	updateStatusFunc func(ctx context.Context, id, status string) error
	replyFunc        func(ctx context.Context, in service.ReplyInput) (*model.Reply, error)
	deleteFunc       func(ctx context.Context, id string) error
	countsFunc       func(ctx context.Context) (*model.InquiryCounts, error)
}

func (m *mockInquiryService) Submit(ctx context.Context, inq *model.Inquiry) (bool, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, inq)
	}
	return true, nil
}

func (m *mockInquiryService) List(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, opts)
	}
	return []*model.Inquiry{}, nil
}

func (m *mockInquiryService) Get(ctx context.Context, id string) (*model.Inquiry, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &model.Inquiry{ID: id}, nil
}

func (m *mockInquiryService) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockInquiryService) Reply(ctx context.Context, in service.ReplyInput) (*model.Reply, error) {
	if m.replyFunc != nil {
		return m.replyFunc(ctx, in)
	}
	return &model.Reply{ID: "reply-1", InquiryID: in.InquiryID, Body: in.Body}, nil
}

func (m *mockInquiryService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockInquiryService) Counts(ctx context.Context) (*model.InquiryCounts, error) {
	if m.countsFunc != nil {
		return m.countsFunc(ctx)
	}
	return &model.InquiryCounts{}, nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp["error"]
}

// ---------------------------------------------------------------------------
// POST /api/contact tests
// ---------------------------------------------------------------------------

func TestInquiryHandler_Submit_Success(t *testing.T) {
	var captured *model.Inquiry
	mock := &mockInquiryService{
		submitFunc: func(ctx context.Context, inq *model.Inquiry) (bool, error) {
			captured = inq
			return true, nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	body := `{"name":"Alice","email":"alice@example.com","phone":"555 0100","subject":"Quote","message":"Hello!"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp submitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || !resp.Notified {
		t.Errorf("resp = %+v", resp)
	}
	if captured == nil || captured.Email != "alice@example.com" || captured.Phone != "555 0100" || captured.Subject != "Quote" {
		t.Errorf("captured = %+v", captured)
	}
}

func TestInquiryHandler_Submit_NotifyFailedStill201(t *testing.T) {
	mock := &mockInquiryService{
		submitFunc: func(ctx context.Context, inq *model.Inquiry) (bool, error) {
			return false, nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":"A","email":"a@example.com","message":"hi"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got := rec.Body.String(); !strings.Contains(got, `"notified":false`) || strings.Contains(got, "smtp") {
		t.Errorf("body = %s", got)
	}
}

func TestInquiryHandler_Submit_InvalidJSON(t *testing.T) {
	h := NewInquiryHandler(&mockInquiryService{}, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{bad`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if code := decodeError(t, rec); code != "invalid_json" {
		t.Errorf("error = %q", code)
	}
}

func TestInquiryHandler_Submit_ValidationError(t *testing.T) {
	mock := &mockInquiryService{
		submitFunc: func(ctx context.Context, inq *model.Inquiry) (bool, error) {
			return false, &service.ValidationError{Field: "email", Code: "email_invalid"}
		},
	}
	h := NewInquiryHandler(mock, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"email":"x"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if code := decodeError(t, rec); code != "email_invalid" {
		t.Errorf("error = %q", code)
	}
}

func TestInquiryHandler_Submit_ServiceError(t *testing.T) {
	mock := &mockInquiryService{
		submitFunc: func(ctx context.Context, inq *model.Inquiry) (bool, error) {
			return false, errors.New("db error: password=hunter2")
		},
	}
	h := NewInquiryHandler(mock, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"email":"a@example.com"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Error("internal error detail leaked")
	}
}

// ---------------------------------------------------------------------------
// admin inbox tests
// ---------------------------------------------------------------------------

func TestInquiryHandler_AdminList_ParsesQuery(t *testing.T) {
	var got model.InquiryListOptions
	mock := &mockInquiryService{
		listFunc: func(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error) {
			got = opts
			return []*model.Inquiry{{ID: "a"}}, nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/inquiries?status=new&limit=5&offset=10", nil)
	rec := httptest.NewRecorder()
	h.AdminList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Status != "new" || got.Limit != 5 || got.Offset != 10 {
		t.Errorf("opts = %+v", got)
	}
	var resp adminListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Inquiries) != 1 {
		t.Errorf("expected 1 inquiry, got %d", len(resp.Inquiries))
	}
}

func TestInquiryHandler_AdminList_IgnoresBadLimit(t *testing.T) {
	var got model.InquiryListOptions
	mock := &mockInquiryService{
		listFunc: func(ctx context.Context, opts model.InquiryListOptions) ([]*model.Inquiry, error) {
			got = opts
			return []*model.Inquiry{}, nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/inquiries?limit=1000&offset=-1", nil)
	h.AdminList(httptest.NewRecorder(), req)

	if got.Limit != 20 || got.Offset != 0 {
		t.Errorf("opts = %+v", got)
	}
}

func TestInquiryHandler_AdminGet_NotFound(t *testing.T) {
	mock := &mockInquiryService{
		getFunc: func(ctx context.Context, id string) (*model.Inquiry, error) {
			return nil, fmt.Errorf("%w: inquiry %s", service.ErrNotFound, id)
		},
	}
	h := NewInquiryHandler(mock, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/inquiries/x", nil)
	req.SetPathValue("id", "x")
	rec := httptest.NewRecorder()
	h.AdminGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestInquiryHandler_AdminUpdateStatus(t *testing.T) {
	var gotID, gotStatus string
	mock := &mockInquiryService{
		updateStatusFunc: func(ctx context.Context, id, status string) error {
			gotID, gotStatus = id, status
			return nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/inquiries/inq-1/status", strings.NewReader(`{"status":"archived"}`))
	req.SetPathValue("id", "inq-1")
	rec := httptest.NewRecorder()
	h.AdminUpdateStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "inq-1" || gotStatus != "archived" {
		t.Errorf("got %s/%s", gotID, gotStatus)
	}
}

func TestInquiryHandler_AdminReply_JSON(t *testing.T) {
	var got service.ReplyInput
	mock := &mockInquiryService{
		replyFunc: func(ctx context.Context, in service.ReplyInput) (*model.Reply, error) {
			got = in
			return &model.Reply{ID: "r1", InquiryID: in.InquiryID}, nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/inquiries/inq-1/reply", strings.NewReader(`{"body":"Thanks!","sent_by":"Bob"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "inq-1")
	rec := httptest.NewRecorder()
	h.AdminReply(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.InquiryID != "inq-1" || got.Body != "Thanks!" || got.SentBy != "Bob" || got.Attachment != nil {
		t.Errorf("input = %+v", got)
	}
	if strings.Contains(rec.Body.String(), "attachment_delivered") {
		t.Errorf("attachment_delivered set without an attachment: %s", rec.Body.String())
	}
}

func multipartReply(t *testing.T, body string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("body", body); err != nil {
		t.Fatal(err)
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("attachment", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestInquiryHandler_AdminReply_MultipartAttachment(t *testing.T) {
	var gotName string
	var gotData []byte
	mock := &mockInquiryService{
		replyFunc: func(ctx context.Context, in service.ReplyInput) (*model.Reply, error) {
			if in.Attachment == nil {
				t.Fatal("attachment missing")
			}
			gotName = in.Attachment.Filename
			gotData, _ = io.ReadAll(in.Attachment.Data)
			return &model.Reply{ID: "r1"}, nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	buf, ct := multipartReply(t, "See attached", "quote.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/inquiries/inq-1/reply", buf)
	req.Header.Set("Content-Type", ct)
	req.SetPathValue("id", "inq-1")
	rec := httptest.NewRecorder()
	h.AdminReply(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotName != "quote.pdf" || string(gotData) != "%PDF-1.4" {
		t.Errorf("attachment = %q %q", gotName, gotData)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["id"] != "r1" {
		t.Errorf("id = %v", resp["id"])
	}
	if delivered, ok := resp["attachment_delivered"].(bool); !ok || delivered {
		t.Errorf("attachment_delivered = %v, want false", resp["attachment_delivered"])
	}
}

func TestInquiryHandler_AdminReply_AttachmentTooLarge(t *testing.T) {
	mock := &mockInquiryService{
		replyFunc: func(ctx context.Context, in service.ReplyInput) (*model.Reply, error) {
			t.Error("Reply should not be called")
			return nil, nil
		},
	}
	h := NewInquiryHandler(mock, 1024)

	buf, ct := multipartReply(t, "big", "big.bin", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/inquiries/inq-1/reply", buf)
	req.Header.Set("Content-Type", ct)
	req.SetPathValue("id", "inq-1")
	rec := httptest.NewRecorder()
	h.AdminReply(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := decodeError(t, rec); code != "attachment_too_large" {
		t.Errorf("error = %q", code)
	}
}

func TestInquiryHandler_AdminReply_MailFailed(t *testing.T) {
	mock := &mockInquiryService{
		replyFunc: func(ctx context.Context, in service.ReplyInput) (*model.Reply, error) {
			return nil, fmt.Errorf("%w: 550 mailbox unavailable", service.ErrMailFailed)
		},
	}
	h := NewInquiryHandler(mock, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/inquiries/inq-1/reply", strings.NewReader(`{"body":"hi"}`))
	req.SetPathValue("id", "inq-1")
	rec := httptest.NewRecorder()
	h.AdminReply(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if code := decodeError(t, rec); code != "mail_failed" {
		t.Errorf("error = %q", code)
	}
}

func TestInquiryHandler_AdminDelete(t *testing.T) {
	var deleted string
	mock := &mockInquiryService{
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/inquiries/inq-1", nil)
	req.SetPathValue("id", "inq-1")
	rec := httptest.NewRecorder()
	h.AdminDelete(rec, req)

	if rec.Code != http.StatusNoContent || deleted != "inq-1" {
		t.Errorf("status %d deleted %q", rec.Code, deleted)
	}
}

func TestInquiryHandler_AdminCounts(t *testing.T) {
	mock := &mockInquiryService{
		countsFunc: func(ctx context.Context) (*model.InquiryCounts, error) {
			return &model.InquiryCounts{New: 3, Read: 1, Total: 4}, nil
		},
	}
	h := NewInquiryHandler(mock, 0)

	rec := httptest.NewRecorder()
	h.AdminCounts(rec, httptest.NewRequest(http.MethodGet, "/api/admin/inquiries/counts", nil))

	var counts model.InquiryCounts
	if err := json.NewDecoder(rec.Body).Decode(&counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if counts.New != 3 || counts.Total != 4 {
		t.Errorf("counts = %+v", counts)
	}
}
