package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"twin-dashboard/internal/model"
)

// In-memory store implementations. They back the test suites and the
// STORE=memory mode; the Postgres repositories are the production path.
// Writes are serialized under the store mutex, which subsumes the
// per-identity guarantee the credential store contract requires.

type MemoryUserStore struct {
	mu     sync.RWMutex
	byID   map[string]model.User
	emails map[string]string // lower(email) -> id
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:   map[string]model.User{},
		emails: map[string]string{},
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(u.Email)
	if _, exists := s.emails[key]; exists {
		return model.ErrDuplicateIdentity
	}

	s.byID[u.ID] = u
	s.emails[key] = u.ID
	return nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.byID[id]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.emails[emailKey(email)]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, id string, fields model.ProfileUpdate) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.byID[id]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}

	if fields.FullName != nil {
		u.FullName = *fields.FullName
	}
	if fields.Company != nil {
		u.Company = *fields.Company
	}

	s.byID[id] = u
	return u, nil
}

func (s *MemoryUserStore) UpdateCredential(_ context.Context, id string, update func(model.User) (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.byID[id]
	if !exists {
		return model.ErrUserNotFound
	}

	newHash, err := update(u)
	if err != nil {
		return err
	}

	u.PasswordHash = newHash
	s.byID[id] = u
	return nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.byID))
	for _, u := range s.byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return emailKey(users[i].Email) < emailKey(users[j].Email)
	})
	return users, nil
}

func (s *MemoryUserStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

type MemoryResetStore struct {
	mu     sync.Mutex
	byHash map[string]model.PasswordReset
}

func NewMemoryResetStore() *MemoryResetStore {
	return &MemoryResetStore{byHash: map[string]model.PasswordReset{}}
}

func (s *MemoryResetStore) Create(_ context.Context, reset model.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byHash[reset.TokenHash] = reset
	return nil
}

func (s *MemoryResetStore) Consume(_ context.Context, tokenHash string) (model.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reset, exists := s.byHash[tokenHash]
	if !exists {
		return model.PasswordReset{}, model.ErrResetTokenInvalid
	}

	delete(s.byHash, tokenHash)
	return reset, nil
}

type MemoryTwinStore struct {
	mu    sync.RWMutex
	byID  map[string]model.Twin
	order []string
}

func NewMemoryTwinStore() *MemoryTwinStore {
	return &MemoryTwinStore{byID: map[string]model.Twin{}}
}

func (s *MemoryTwinStore) Create(_ context.Context, t model.Twin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[t.ID] = t
	s.order = append(s.order, t.ID)
	return nil
}

func (s *MemoryTwinStore) FindByID(_ context.Context, id string) (model.Twin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.byID[id]
	if !exists {
		return model.Twin{}, model.ErrTwinNotFound
	}
	return t, nil
}

func (s *MemoryTwinStore) List(_ context.Context) ([]model.Twin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	twins := make([]model.Twin, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		twins = append(twins, s.byID[s.order[i]])
	}
	return twins, nil
}
