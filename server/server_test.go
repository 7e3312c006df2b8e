package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/planetland/backend/imagestore"
	"github.com/planetland/backend/models"
	"github.com/planetland/backend/properties"
	"github.com/planetland/backend/repository"
	"github.com/planetland/backend/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	handler   http.Handler
	store     *imagestore.Store
	imagesDoc string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	dataDir := filepath.Join(root, "data")

	disk, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: uploads, BaseURL: "/uploads"})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	disks := storage.NewDiskManager()
	disks.AddDisk(imagestore.DefaultDiskName, disk)

	imagesDoc := filepath.Join(dataDir, repository.DefaultImagesFile)
	logger := imagestore.NewDefaultLogger(imagestore.LogLevelNone, io.Discard)
	store, err := imagestore.New(disks, repository.NewJSONFileRepository(imagesDoc),
		imagestore.WithUploadsDir(uploads),
		imagestore.WithDataDir(dataDir),
		imagestore.WithLogger(logger))
	if err != nil {
		t.Fatalf("imagestore.New: %v", err)
	}

	propsPath := filepath.Join(dataDir, properties.DefaultPropertiesFile)
	if err := os.WriteFile(propsPath, []byte(`[{"OFFER NO": 101, "TITLE": "Villa"}]`), 0644); err != nil {
		t.Fatalf("write properties: %v", err)
	}

	srv := New(store, properties.NewStore(propsPath),
		WithStatic("/uploads/properties", filepath.Join(uploads, imagestore.DefaultPathPrefix)),
		WithLogWriter(io.Discard),
		WithLogger(logger))

	return &testServer{handler: srv.Handler(), store: store, imagesDoc: imagesDoc}
}

func (ts *testServer) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, method, target, strings.NewReader(body), "application/json")
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, files []formFile, fields map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(f.data)
	}
	for key, values := range fields {
		for _, v := range values {
			if err := w.WriteField(key, v); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Image   *models.ImageRecord  `json:"image"`
	Images  []models.ImageRecord `json:"images"`
	Count   int                  `json:"count"`
	Skipped int                  `json:"skipped"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAddURLAndList(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, http.MethodPost, "/api/images/property/P1/url", `{"url": "http://x/a.jpg", "description": "Front"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created envelope
	decode(t, rec, &created)
	if !created.Success || created.Image == nil || created.Image.Order != 1 || created.Image.ThumbnailURL != "http://x/a.jpg" {
		t.Fatalf("unexpected response %s", rec.Body)
	}

	rec = ts.do(t, http.MethodGet, "/api/images/property/P1", nil, "")
	var list []models.ImageRecord
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != created.Image.ID {
		t.Fatalf("unexpected list %s", rec.Body)
	}

	rec = ts.do(t, http.MethodGet, "/api/images", nil, "")
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("unexpected full list %s", rec.Body)
	}

	rec = ts.doJSON(t, http.MethodPost, "/api/images/property/P1/url", `{"description": "no url"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var failed envelope
	decode(t, rec, &failed)
	if failed.Success || failed.Message != "Image URL is required" {
		t.Fatalf("unexpected failure body %s", rec.Body)
	}
}

func TestUploadServesFilesAndDeletes(t *testing.T) {
	ts := newTestServer(t)
	data := pngBytes(t)

	body, contentType := multipartBody(t,
		[]formFile{{field: "image", name: "front.png", data: data}},
		map[string][]string{"description": {"Front"}, "type": {"exterior"}})
	rec := ts.do(t, http.MethodPost, "/api/images/property/101/upload", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created envelope
	decode(t, rec, &created)
	if created.Image == nil || created.Image.Description != "Front" {
		t.Fatalf("unexpected response %s", rec.Body)
	}

	rec = ts.do(t, http.MethodGet, created.Image.ThumbnailURL, nil, "")
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), data) {
		t.Fatalf("thumbnail not served: %d", rec.Code)
	}

	rec = ts.do(t, http.MethodDelete, "/api/images/property/101/image/"+created.Image.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = ts.do(t, http.MethodGet, created.Image.URL, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected deleted original to be gone, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodDelete, "/api/images/property/101/image/"+created.Image.ID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", rec.Code)
	}
}

func TestUploadRequiresFile(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, nil, map[string][]string{"description": {"x"}})
	rec := ts.do(t, http.MethodPost, "/api/images/property/101/upload", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	body, contentType = multipartBody(t,
		[]formFile{{field: "image", name: "notes.txt", data: []byte("hello world")}}, nil)
	rec = ts.do(t, http.MethodPost, "/api/images/property/101/upload", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image, got %d", rec.Code)
	}

	rec = ts.doJSON(t, http.MethodPost, "/api/images/property/101/upload", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-multipart body, got %d", rec.Code)
	}
}

func TestBulkUpload(t *testing.T) {
	ts := newTestServer(t)
	data := pngBytes(t)

	body, contentType := multipartBody(t,
		[]formFile{
			{field: "images", name: "a.png", data: data},
			{field: "images", name: "b.png", data: data},
		},
		map[string][]string{"descriptions": {"first", "second"}, "types": {"interior"}})
	rec := ts.do(t, http.MethodPost, "/api/images/property/101/bulk", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var resp envelope
	decode(t, rec, &resp)
	if len(resp.Images) != 2 {
		t.Fatalf("expected 2 images, got %s", rec.Body)
	}
	if resp.Images[1].Description != "second" || resp.Images[0].Type != "interior" || resp.Images[1].Type != "exterior" {
		t.Fatalf("positional fields not applied: %s", rec.Body)
	}
	if resp.Images[0].Order != 1 || resp.Images[1].Order != 2 {
		t.Fatalf("unexpected orders: %s", rec.Body)
	}
}

func TestUpdateAndReorder(t *testing.T) {
	ts := newTestServer(t)

	var ids []string
	for _, u := range []string{"http://x/1.jpg", "http://x/2.jpg"} {
		rec := ts.doJSON(t, http.MethodPost, "/api/images/property/101/url", `{"url": "`+u+`"}`)
		var created envelope
		decode(t, rec, &created)
		ids = append(ids, created.Image.ID)
	}

	rec := ts.doJSON(t, http.MethodPut, "/api/images/property/101/image/"+ids[0], `{"type": "interior"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var updated envelope
	decode(t, rec, &updated)
	if updated.Image.Type != "interior" || updated.Image.Order != 1 {
		t.Fatalf("unexpected update %s", rec.Body)
	}

	rec = ts.doJSON(t, http.MethodPut, "/api/images/property/101/image/img-missing", `{"type": "interior"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = ts.doJSON(t, http.MethodPut, "/api/images/property/101/reorder", `{"imageIds": ["`+ids[1]+`", "`+ids[0]+`"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = ts.doJSON(t, http.MethodPut, "/api/images/property/101/reorder", `{"imageIds": ["`+ids[1]+`"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short list, got %d", rec.Code)
	}

	rec = ts.doJSON(t, http.MethodPut, "/api/images/property/101/reorder", `{"orderMap": "nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad order map, got %d", rec.Code)
	}

	rec = ts.doJSON(t, http.MethodPut, "/api/images/property/101/reorder", `{"orderMap": {"img-none": 1}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unmatched order map, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/images/property/101", nil, "")
	var list []models.ImageRecord
	decode(t, rec, &list)
	for _, img := range list {
		if img.ID == ids[1] && img.Order != 1 {
			t.Fatalf("reorder not applied: %s", rec.Body)
		}
	}
}

func TestImportAndExport(t *testing.T) {
	ts := newTestServer(t)

	doc := []byte(`{"property_images": [
		{"id": "img-a", "propertyId": "101", "url": "http://x/a.jpg", "type": "exterior", "order": 1, "timestamp": "2024-01-01T00:00:00.000Z"},
		{"id": "img-b", "propertyId": "202", "url": "http://x/b.jpg", "type": "exterior", "order": 1, "timestamp": "2024-01-01T00:00:00.000Z"}
	]}`)

	body, contentType := multipartBody(t, []formFile{{field: "jsonFile", name: "images.json", data: doc}}, nil)
	rec := ts.do(t, http.MethodPost, "/api/images/import", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp envelope
	decode(t, rec, &resp)
	if resp.Count != 2 || resp.Skipped != 0 {
		t.Fatalf("unexpected import result %s", rec.Body)
	}

	body, contentType = multipartBody(t, []formFile{{field: "jsonFile", name: "images.json", data: doc}}, nil)
	rec = ts.do(t, http.MethodPost, "/api/images/import", body, contentType)
	decode(t, rec, &resp)
	if resp.Count != 0 || resp.Skipped != 2 {
		t.Fatalf("expected duplicates skipped, got %s", rec.Body)
	}

	entries, err := os.ReadDir(ts.store.TempDir())
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp dir to be empty, found %d entries", len(entries))
	}

	body, contentType = multipartBody(t, []formFile{{field: "jsonFile", name: "bad.json", data: []byte(`{"property_images": 1}`)}}, nil)
	rec = ts.do(t, http.MethodPost, "/api/images/import", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad structure, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/images/export?propertyId=101", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=property_images_101.json" {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}
	var exported models.ImageCollection
	decode(t, rec, &exported)
	if len(exported.PropertyImages) != 1 || exported.PropertyImages[0].ID != "img-a" {
		t.Fatalf("unexpected export %s", rec.Body)
	}

	rec = ts.do(t, http.MethodGet, "/api/images/export", nil, "")
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=property_images.json" {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}

	rec = ts.do(t, http.MethodGet, "/api/images/export?propertyId=Villa%20Sea%3B1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="property_images_Villa Sea;1.json"` {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}
}

func TestTempDirIsNotServed(t *testing.T) {
	ts := newTestServer(t)

	spooled := filepath.Join(ts.store.TempDir(), "import-1.json")
	if err := os.WriteFile(spooled, []byte(`{"property_images": []}`), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	rec := ts.do(t, http.MethodGet, "/uploads/temp/import-1.json", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for temp file, got %d", rec.Code)
	}
}

func TestStorageErrorsHideCause(t *testing.T) {
	ts := newTestServer(t)

	if err := os.WriteFile(ts.imagesDoc, []byte(`{"property_images": [`), 0644); err != nil {
		t.Fatalf("corrupt document: %v", err)
	}

	rec := ts.do(t, http.MethodGet, "/api/images", nil, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp envelope
	decode(t, rec, &resp)
	if resp.Success || resp.Message != "Failed to read image data" {
		t.Fatalf("unexpected body %s", rec.Body)
	}
	if strings.Contains(rec.Body.String(), "unexpected end") || strings.Contains(rec.Body.String(), ts.imagesDoc) {
		t.Fatalf("internal cause leaked: %s", rec.Body)
	}
}

func TestProperties(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/properties", nil, "")
	var list []models.Property
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID() != "101" {
		t.Fatalf("unexpected properties %s", rec.Body)
	}

	rec = ts.do(t, http.MethodGet, "/api/properties/101", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/properties/999", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
