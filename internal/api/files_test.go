package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/driftlabs/driftline/internal/files"
)

// uploadFile performs a multipart upload with an explicit part content type.
func uploadFile(t *testing.T, router http.Handler, token, fieldName, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create multipart part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write multipart content: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ─── File Endpoint Tests ───────────────────────────────────────────

func TestUploadFile(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")

	content := []byte("hello, uploads")
	w := uploadFile(t, router, accessToken, "file", "notes.txt", "text/plain", content)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var record files.File
	decodeBody(t, w, &record)

	if record.ID == 0 {
		t.Error("id not assigned")
	}
	if record.OriginalName != "notes.txt" {
		t.Errorf("original_name = %q, want notes.txt", record.OriginalName)
	}
	if record.Mimetype != "text/plain" {
		t.Errorf("mimetype = %q", record.Mimetype)
	}
	if record.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", record.Size, len(content))
	}
	// Stored under a generated name, never the client's
	if record.Filename == "notes.txt" {
		t.Error("stored filename should not be the original name")
	}
}

func TestUploadFile_RequiresAuth(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := uploadFile(t, router, "", "file", "notes.txt", "text/plain", []byte("data"))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUploadFile_WrongField(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")

	w := uploadFile(t, router, accessToken, "attachment", "notes.txt", "text/plain", []byte("data"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "No file provided" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestUploadFile_UnsupportedType(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")

	w := uploadFile(t, router, accessToken, "file", "app.exe", "application/x-msdownload", []byte{0x4d, 0x5a})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if len(resp.Errors) == 0 || resp.Errors[0] != "File type not supported. Allowed types: images, PDF, JSON, CSV, Excel" {
		t.Errorf("errors = %v", resp.Errors)
	}
}

func TestUploadFile_TooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Uploads.MaxSize = 1024 // keep the test payload small

	srv := testServerWithConfig(t, cfg)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")

	w := uploadFile(t, router, accessToken, "file", "big.txt", "text/plain", make([]byte, 2048))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if len(resp.Errors) == 0 {
		t.Fatalf("no validation errors in %s", w.Body.String())
	}
}

func TestListFiles(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")
	uploadFile(t, router, accessToken, "file", "a.txt", "text/plain", []byte("a"))
	uploadFile(t, router, accessToken, "file", "b.txt", "text/plain", []byte("b"))

	w := doJSON(t, router, http.MethodGet, "/api/files", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Items      []files.File `json:"items"`
		Pagination Pagination   `json:"pagination"`
	}
	decodeBody(t, w, &resp)

	if resp.Pagination.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Pagination.Total)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].Uploader.Email != "alice@example.com" {
		t.Errorf("uploader = %+v, want alice", resp.Items[0].Uploader)
	}
}

func TestGetFile_NotFound(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/files/999", "", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "File not found" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestDownloadFile(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")
	content := []byte("round-trip payload")
	uploadFile(t, router, accessToken, "file", "payload.txt", "text/plain", content)

	w := doJSON(t, router, http.MethodGet, "/api/files/1/download", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !bytes.Equal(w.Body.Bytes(), content) {
		t.Errorf("body = %q, want %q", w.Body.Bytes(), content)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="payload.txt"` {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestDownloadFile_MissingBlob(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")
	w := uploadFile(t, router, accessToken, "file", "gone.txt", "text/plain", []byte("x"))

	var record files.File
	decodeBody(t, w, &record)

	// Remove the blob behind the metadata's back
	all, err := srv.files.List(context.Background())
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if err := srv.storage.Remove(all[0].FilePath); err != nil {
		t.Fatalf("remove blob: %v", err)
	}

	w2 := doJSON(t, router, http.MethodGet, "/api/files/1/download", "", "")
	if w2.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w2.Code, http.StatusNotFound)
	}

	var resp ErrorResponse
	decodeBody(t, w2, &resp)
	if resp.Error != "File not found on disk" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestDeleteFile(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	accessToken, _ := loginAs(t, router, "alice@example.com")
	uploadFile(t, router, accessToken, "file", "doomed.txt", "text/plain", []byte("x"))

	w := doJSON(t, router, http.MethodDelete, "/api/files/1", "", accessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["message"] != "File deleted successfully" {
		t.Errorf("message = %q", resp["message"])
	}

	w = doJSON(t, router, http.MethodGet, "/api/files/1", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeleteFile_RequiresAuth(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodDelete, "/api/files/1", "", "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
