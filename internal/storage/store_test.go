package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers path-style PutObject and GetObject requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	ranges  []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = data
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		f.ranges = append(f.ranges, r.Header.Get("Range"))
		w.Header().Set("Content-Type", f.types[r.URL.Path])
		if r.Header.Get("Range") == "bytes=0-1" {
			w.Header().Set("Content-Range", "bytes 0-1/4")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write(data[:2])
			return
		}
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, endpoint string) *Store {
	t.Helper()
	store, err := NewStore(Config{
		Endpoint:      endpoint,
		Region:        "us-east-1",
		AccessKey:     "ak",
		SecretKey:     "sk",
		Bucket:        "astro",
		PublicBaseURL: "https://cdn.example.com/",
		UsePathStyle:  true,
		Prefix:        "/images/",
	})
	require.NoError(t, err)
	return store
}

func TestNewStoreValidatesConfig(t *testing.T) {
	_, err := NewStore(Config{Region: "us-east-1", AccessKey: "a", SecretKey: "b", PublicBaseURL: "x"})
	assert.Error(t, err)
	_, err = NewStore(Config{Bucket: "b", AccessKey: "a", SecretKey: "b", PublicBaseURL: "x"})
	assert.Error(t, err)
	_, err = NewStore(Config{Bucket: "b", Region: "r", PublicBaseURL: "x"})
	assert.Error(t, err)
	_, err = NewStore(Config{Bucket: "b", Region: "r", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)
}

func TestUploadAndOpen(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	ctx := context.Background()

	url, err := store.Upload(ctx, "ada-1700000000000.png", []byte("\x89PNG"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/ada-1700000000000.png", url)
	assert.Contains(t, fake.objects, "/astro/images/ada-1700000000000.png")

	name, err := store.NameFromURL(url)
	require.NoError(t, err)
	assert.Equal(t, "ada-1700000000000.png", name)

	obj, err := store.Open(ctx, name, "")
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.NoError(t, obj.Body.Close())
	assert.Equal(t, []byte("\x89PNG"), data)
	assert.Equal(t, "image/png", obj.ContentType)

	partial, err := store.Open(ctx, name, "bytes=0-1")
	require.NoError(t, err)
	defer partial.Body.Close()
	assert.Equal(t, "bytes 0-1/4", partial.ContentRange)
	assert.Equal(t, []string{"", "bytes=0-1"}, fake.ranges)
}

func TestOpenMissingBlob(t *testing.T) {
	srv := httptest.NewServer(newFakeS3())
	defer srv.Close()

	_, err := newTestStore(t, srv.URL).Open(context.Background(), "nope.png", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRejectsEmptyData(t *testing.T) {
	store := newTestStore(t, "http://127.0.0.1:1")
	_, err := store.Upload(context.Background(), "a.png", nil, "image/png")
	assert.Error(t, err)
}

func TestNameFromURL(t *testing.T) {
	store := newTestStore(t, "http://127.0.0.1:1")

	name, err := store.NameFromURL("https://cdn.example.com/images/j%C3%BCrgen-1.png?sig=abc")
	require.NoError(t, err)
	assert.Equal(t, "jürgen-1.png", name)

	_, err = store.NameFromURL("https://elsewhere.example.com/images/a.png")
	assert.Error(t, err)

	_, err = store.NameFromURL("https://cdn.example.com/")
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "ada-lovelace-1700000000123.png", ObjectName("  Ada Lovelace! ", now))
	assert.Equal(t, "user-1700000000123.png", ObjectName("Зоя", now))
}
