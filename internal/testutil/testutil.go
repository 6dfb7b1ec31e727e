// Package testutil provides in-memory stores and fixtures shared by tests.
package testutil

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/busseva/busseva-backend/internal/config"
	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Config returns a configuration suitable for tests: cheap bcrypt, a fixed
// JWT secret and uploads under dir.
func Config(dir string) *config.Config {
	return &config.Config{
		GinMode:        "test",
		AppEnv:         "test",
		JWTSecret:      "test-secret",
		JWTExpiry:      24 * time.Hour,
		BcryptCost:     bcrypt.MinCost,
		AdminUsername:  "admin",
		AdminPassword:  "admin123",
		StorageBackend: config.StorageLocal,
		UploadDir:      dir,
		UploadURLPath:  "/uploads",
		MaxUploadBytes: 5 * 1024 * 1024,
	}
}

// JPEG returns size bytes starting with a JPEG signature.
func JPEG(size int) []byte {
	return withMagic([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, size)
}

// PNG returns size bytes starting with a PNG signature.
func PNG(size int) []byte {
	return withMagic([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), size)
}

func withMagic(magic []byte, size int) []byte {
	if size < len(magic) {
		size = len(magic)
	}
	b := bytes.Repeat([]byte{0}, size)
	copy(b, magic)
	return b
}

// ─── Admin store ──────────────────────────────────────────────────────────

// MemoryAdminStore is an in-memory credential store.
type MemoryAdminStore struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*model.Admin
}

// NewMemoryAdminStore creates an empty MemoryAdminStore.
func NewMemoryAdminStore() *MemoryAdminStore {
	return &MemoryAdminStore{byName: map[string]*model.Admin{}}
}

func (s *MemoryAdminStore) GetByID(_ context.Context, id int64) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byName {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemoryAdminStore) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryAdminStore) CreateIfAbsent(_ context.Context, a *model.Admin) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[a.Username]; ok {
		return false, nil
	}
	s.nextID++
	now := time.Now()
	stored := &model.Admin{ID: s.nextID, Username: a.Username, PasswordHash: a.PasswordHash, CreatedAt: now, UpdatedAt: now}
	s.byName[a.Username] = stored
	return true, nil
}

func (s *MemoryAdminStore) UpdatePassword(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[username]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = time.Now()
	return nil
}

// Count returns the number of stored admins.
func (s *MemoryAdminStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byName)
}

// ─── Bus store ────────────────────────────────────────────────────────────

// MemoryBusStore is an in-memory route record store. Set Err to make every
// call fail, or CreateErr to fail inserts only.
type MemoryBusStore struct {
	mu     sync.Mutex
	nextID int64
	clock  time.Time
	buses  map[string]*model.Bus

	Err       error
	CreateErr error
}

// NewMemoryBusStore creates an empty MemoryBusStore.
func NewMemoryBusStore() *MemoryBusStore {
	return &MemoryBusStore{
		buses: map[string]*model.Bus{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *MemoryBusStore) sorted() []model.Bus {
	out := make([]model.Bus, 0, len(s.buses))
	for _, b := range s.buses {
		out = append(out, copyBus(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryBusStore) ListAll(_ context.Context) ([]model.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.sorted(), nil
}

func (s *MemoryBusStore) GetByNumber(_ context.Context, busNumber string) (*model.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	b, ok := s.buses[busNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := copyBus(b)
	return &cp, nil
}

func (s *MemoryBusStore) ListByNumbers(_ context.Context, numbers []string) ([]model.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []model.Bus{}
	for _, n := range numbers {
		if b, ok := s.buses[n]; ok {
			out = append(out, copyBus(b))
		}
	}
	return out, nil
}

func (s *MemoryBusStore) SearchByRoute(_ context.Context, text string) ([]model.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	needle := strings.ToLower(text)
	out := []model.Bus{}
	for _, b := range s.sorted() {
		if strings.Contains(strings.ToLower(b.Route), needle) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryBusStore) Create(_ context.Context, b *model.Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, ok := s.buses[b.BusNumber]; ok {
		return repository.ErrDuplicateKey
	}
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	b.ID = s.nextID
	b.CreatedAt = s.clock
	b.UpdatedAt = s.clock
	cp := copyBus(b)
	s.buses[b.BusNumber] = &cp
	return nil
}

func (s *MemoryBusStore) Update(_ context.Context, busNumber string, p model.BusPatch) (*model.Bus, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, "", s.Err
	}
	b, ok := s.buses[busNumber]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	previous := b.ImageURL
	if p.Route != nil {
		b.Route = *p.Route
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Fare != nil {
		b.Fare = *p.Fare
	}
	if p.Timings != nil {
		b.Timings = *p.Timings
	}
	if p.Stops != nil {
		b.Stops = append([]string(nil), p.Stops...)
	}
	if p.ImageURL != nil {
		b.ImageURL = *p.ImageURL
	}
	s.clock = s.clock.Add(time.Second)
	b.UpdatedAt = s.clock
	cp := copyBus(b)
	return &cp, previous, nil
}

func (s *MemoryBusStore) Delete(_ context.Context, busNumber string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	b, ok := s.buses[busNumber]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(s.buses, busNumber)
	return b.ImageURL, nil
}

// Put stores a bus directly, bypassing validation. Useful for fixtures.
func (s *MemoryBusStore) Put(b model.Bus) {
	_ = s.Create(context.Background(), &b)
}

func copyBus(b *model.Bus) model.Bus {
	cp := *b
	cp.Stops = append([]string{}, b.Stops...)
	return cp
}
