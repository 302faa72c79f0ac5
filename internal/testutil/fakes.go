// Package testutil provides in-memory collaborators that count their calls.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/digkill/AstroImages/internal/imagegen"
	"github.com/digkill/AstroImages/internal/models"
	"github.com/digkill/AstroImages/internal/repository"
	"github.com/digkill/AstroImages/internal/storage"
)

type UserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	next  int

	FindErr      error
	CreateErr    error
	ReplaceErr   error
	DecrementErr error

	Creates    int
	Replaces   int
	Decrements int
}

func NewUserStore(users ...*models.User) *UserStore {
	s := &UserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		cp := *u
		s.next++
		if cp.ID == "" {
			cp.ID = fmt.Sprintf("user-%d", s.next)
		}
		s.users[cp.UserID] = &cp
	}
	return s
}

func (s *UserStore) FindByUserID(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Creates++
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	if _, ok := s.users[user.UserID]; ok {
		return nil, repository.ErrDuplicate
	}
	cp := *user
	s.next++
	cp.ID = fmt.Sprintf("user-%d", s.next)
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.users[cp.UserID] = &cp
	out := cp
	return &out, nil
}

func (s *UserStore) Replace(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Replaces++
	if s.ReplaceErr != nil {
		return nil, s.ReplaceErr
	}
	existing, ok := s.users[user.UserID]
	if !ok {
		return nil, fmt.Errorf("replace user: %s vanished", user.UserID)
	}
	cp := *user
	cp.ID = existing.ID
	cp.Credits = existing.Credits
	cp.IsActive = existing.IsActive
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	s.users[cp.UserID] = &cp
	out := cp
	return &out, nil
}

func (s *UserStore) DecrementCredits(_ context.Context, userID string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Decrements++
	if s.DecrementErr != nil {
		return s.DecrementErr
	}
	if u, ok := s.users[userID]; ok {
		u.Credits = max(u.Credits-amount, 0)
	}
	return nil
}

// Len reports how many users are stored.
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type ImageStore struct {
	mu     sync.Mutex
	images []models.Image
	next   int

	CreateErr error
	FindErr   error
	ListErr   error

	Creates int
	Finds   int
}

func NewImageStore(images ...models.Image) *ImageStore {
	s := &ImageStore{}
	for _, img := range images {
		s.next++
		if img.ID == "" {
			img.ID = fmt.Sprintf("image-%d", s.next)
		}
		s.images = append(s.images, img)
	}
	return s
}

func (s *ImageStore) Create(_ context.Context, image *models.Image) (*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Creates++
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	cp := *image
	s.next++
	cp.ID = fmt.Sprintf("image-%d", s.next)
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.images = append(s.images, cp)
	out := cp
	return &out, nil
}

func (s *ImageStore) FindByID(_ context.Context, id string) (*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Finds++
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	for _, img := range s.images {
		if img.ID == id {
			cp := img
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *ImageStore) ListByUser(_ context.Context, userID string) ([]models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []models.Image
	for _, img := range s.images {
		if img.UserID == userID && img.IsActive {
			out = append(out, img)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// All returns a copy of every stored record.
func (s *ImageStore) All() []models.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Image(nil), s.images...)
}

// BlobStore keeps blobs in memory and serves them under BaseURL.
type BlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	BaseURL   string
	UploadErr error
	OpenErr   error

	Uploads int
	Opens   int
	Ranges  []string
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte), BaseURL: "https://blobs.test/images/"}
}

func (b *BlobStore) Put(name string, data []byte) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[name] = data
	return b.BaseURL + name
}

func (b *BlobStore) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Uploads++
	if b.UploadErr != nil {
		return "", b.UploadErr
	}
	b.blobs[name] = append([]byte(nil), data...)
	return b.BaseURL + name, nil
}

func (b *BlobStore) Open(_ context.Context, name, byteRange string) (*storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Opens++
	b.Ranges = append(b.Ranges, byteRange)
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	data, ok := b.blobs[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   "image/png",
		ContentLength: int64(len(data)),
	}, nil
}

func (b *BlobStore) NameFromURL(raw string) (string, error) {
	if !strings.HasPrefix(raw, b.BaseURL) {
		return "", fmt.Errorf("url %q is outside %s", raw, b.BaseURL)
	}
	name := strings.TrimPrefix(raw, b.BaseURL)
	if name == "" {
		return "", fmt.Errorf("url %q has no object name", raw)
	}
	return name, nil
}

// Generator returns a fixed image URL and downloads fixed bytes.
type Generator struct {
	mu sync.Mutex

	URL         string
	Data        []byte
	ContentType string
	GenerateErr error
	DownloadErr error

	Generates int
	Downloads int
	Last      imagegen.GenerateOptions
}

func NewGenerator() *Generator {
	return &Generator{
		URL:         "https://provider.test/out.png",
		Data:        []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
		ContentType: "image/png",
	}
}

func (g *Generator) Generate(_ context.Context, opts imagegen.GenerateOptions) (*imagegen.Image, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Generates++
	g.Last = opts
	if g.GenerateErr != nil {
		return nil, g.GenerateErr
	}
	model := opts.Model
	if model == "" {
		model = "dall-e-3"
	}
	return &imagegen.Image{URL: g.URL, Model: model}, nil
}

func (g *Generator) Download(_ context.Context, _ string) ([]byte, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Downloads++
	if g.DownloadErr != nil {
		return nil, "", g.DownloadErr
	}
	return g.Data, g.ContentType, nil
}
