package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/AstroImages/internal/models"
	"github.com/digkill/AstroImages/internal/service"
	"github.com/digkill/AstroImages/internal/storage"
	"github.com/digkill/AstroImages/internal/testutil"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type harness struct {
	users     *testutil.UserStore
	images    *testutil.ImageStore
	blobs     *testutil.BlobStore
	generator *testutil.Generator
	logs      *bytes.Buffer
	handler   http.Handler
}

func newHarness(t *testing.T, storeErr error, users ...*models.User) *harness {
	t.Helper()
	h := &harness{
		users:     testutil.NewUserStore(users...),
		images:    testutil.NewImageStore(),
		blobs:     testutil.NewBlobStore(),
		generator: testutil.NewGenerator(),
		logs:      &bytes.Buffer{},
	}
	log := slog.New(slog.NewJSONHandler(h.logs, nil))
	images := service.NewImageService(h.users, h.images, h.blobs, h.generator, log)
	userSvc := service.NewUserService(h.users, 2, log)
	h.handler = NewServer(Options{Addr: ":0", ShutdownTimeout: time.Second}, log, images, userSvc, pinger{err: storeErr}).Handler()
	return h
}

func (h *harness) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sampleUser() *models.User {
	return &models.User{
		UserID:       "u1",
		Name:         "Ada",
		Gender:       models.GenderFemale,
		BirthDate:    time.Date(1994, time.August, 12, 0, 0, 0, 0, time.UTC),
		BirthPlace:   "Porto",
		InterestedIn: models.InterestedInBoys,
		SunSign:      "Leo",
		MoonSign:     "Pisces",
		RisingSign:   "Virgo",
		Credits:      3,
		IsActive:     true,
	}
}

const userBody = `{"userId":"u1","name":"Ada","gender":"female","birthDate":"1994-08-12","knowsBirthTime":true,
"birthTime":"08:30","birthPlace":"Porto","interestedIn":"boys","sunSign":"Leo","moonSign":"Pisces","risingSign":"Virgo"}`

func TestCreateImage(t *testing.T) {
	h := newHarness(t, nil, sampleUser())

	rec := h.do(t, http.MethodPost, "/images", `{"imageType":"pet","userId":"u1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Image created successfully", body["message"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, body["timestamp"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "pet", data["imageType"])
	assert.Equal(t, "completed", data["status"])
	assert.NotEmpty(t, data["id"])
	assert.NotEmpty(t, data["imageUrl"])
	assert.NotEmpty(t, data["createdAt"])
}

func TestCreateImageUnknownUser(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/images", `{"imageType":"pet","userId":"ghost"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "USER_NOT_FOUND", body["errorCode"])
	assert.Equal(t, "/images", body["path"])
	assert.Zero(t, h.blobs.Uploads)
}

func TestCreateImageInvalidJSON(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/images", `{"imageType":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, rec)["errorCode"])

	rec = h.do(t, http.MethodPost, "/images", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateImageGenerationFailureIs500(t *testing.T) {
	h := newHarness(t, nil, sampleUser())
	h.generator.GenerateErr = errors.New("boom")

	rec := h.do(t, http.MethodPost, "/images", `{"imageType":"art","userId":"u1"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "IMAGE_GENERATION_FAILED", body["errorCode"])
	assert.Contains(t, body["message"], "boom")
}

func TestListUserImages(t *testing.T) {
	h := newHarness(t, nil, sampleUser())

	rec := h.do(t, http.MethodGet, "/images/user/u1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "IMAGE_NOT_FOUND", decode(t, rec)["errorCode"])

	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/images", `{"imageType":"city","userId":"u1"}`).Code)

	rec = h.do(t, http.MethodGet, "/images/user/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "city", data[0].(map[string]any)["imageType"])
}

func TestViewImage(t *testing.T) {
	h := newHarness(t, nil)
	url := h.blobs.Put("ada-1.png", []byte("\x89PNG-bytes"))
	h.images = testutil.NewImageStore(models.Image{ID: "img-1", UserID: "u1", ImageURL: url, IsActive: true})
	log := slog.New(slog.NewJSONHandler(h.logs, nil))
	images := service.NewImageService(h.users, h.images, h.blobs, h.generator, log)
	h.handler = NewServer(Options{}, log, images, service.NewUserService(h.users, 0, log), pinger{}).Handler()

	rec := h.do(t, http.MethodGet, "/images/view/img-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "\x89PNG-bytes", rec.Body.String())
	assert.NotContains(t, h.logs.String(), "/images/view/img-1")
}

func TestViewImageRange(t *testing.T) {
	h := newHarness(t, nil)
	srv := NewServer(Options{}, slog.New(slog.NewJSONHandler(io.Discard, nil)),
		service.NewImageService(h.users, testutil.NewImageStore(models.Image{ID: "img-1", ImageURL: "https://blobs.test/images/a.png"}),
			rangeBlobs{h.blobs}, h.generator, slog.New(slog.NewJSONHandler(io.Discard, nil))),
		service.NewUserService(h.users, 0, slog.New(slog.NewJSONHandler(io.Discard, nil))), pinger{})
	h.handler = srv.Handler()

	rec := h.do(t, http.MethodGet, "/images/view/img-1", "", "Range", "bytes=0-1")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 0-1/4", rec.Header().Get("Content-Range"))
	assert.Equal(t, "ab", rec.Body.String())
}

// rangeBlobs answers every Open with a two byte partial object.
type rangeBlobs struct {
	*testutil.BlobStore
}

func (rangeBlobs) Open(_ context.Context, _ string, byteRange string) (*storage.Object, error) {
	if byteRange != "bytes=0-1" {
		return nil, errors.New("unexpected range " + byteRange)
	}
	return &storage.Object{
		Body:          io.NopCloser(strings.NewReader("ab")),
		ContentType:   "image/png",
		ContentLength: 2,
		ContentRange:  "bytes 0-1/4",
	}, nil
}

func TestViewImageMissing(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/images/view/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Image not found", body["message"])
	assert.NotContains(t, body, "errorCode")
	assert.Zero(t, h.blobs.Opens)
}

func TestUpsertUser(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/users", userBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "1994-08-12", data["birthDate"])
	assert.Equal(t, float64(2), data["credits"])

	rec = h.do(t, http.MethodPost, "/users", strings.Replace(userBody, `"name":"Ada"`, `"name":"Ada L."`, 1))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "User updated successfully", body["message"])
	assert.Equal(t, "Ada L.", body["data"].(map[string]any)["name"])
	assert.Equal(t, 1, h.users.Len())

	rec = h.do(t, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada L.", decode(t, rec)["data"].(map[string]any)["name"])
}

func TestUpsertUserValidation(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/users", `{"userId":"u1","gender":"robot"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", body["errorCode"])
	assert.Contains(t, body["message"], "gender")
}

func TestGetUnknownUser(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/users/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decode(t, rec)["errorCode"])
}

func TestHealth(t *testing.T) {
	rec := newHarness(t, nil).do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = newHarness(t, errors.New("no reachable servers")).do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "NOT_FOUND", body["errorCode"])
	assert.Equal(t, "/nowhere", body["path"])

	rec = h.do(t, http.MethodDelete, "/users", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodGet, "/health", "")

	rec := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "astro_images_http_requests_total")
}

func TestRequestsAreLogged(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodGet, "/users/ghost", "")

	var entry map[string]any
	line := strings.TrimSpace(h.logs.String())
	require.NotEmpty(t, line)
	lines := strings.Split(line, "\n")
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, float64(404), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}
