package auth

import (
	"context"
	"sync"
	"time"

	"equipapi/models"
	"equipapi/pkg/apperr"
)

// MemoryUserRepository keeps users in process memory.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID uint
	byID   map[uint]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{nextID: 1, byID: make(map[uint]models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	now := time.Now()
	u.ID = r.nextID
	u.CreatedAt, u.UpdatedAt = now, now
	r.nextID++
	r.byID[u.ID] = *u
	return nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFound
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uint) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id uint, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.HashedPassword = hash
	u.UpdatedAt = time.Now()
	r.byID[id] = u
	return nil
}

// MemoryTokenRepository keeps issued tokens in process memory.
type MemoryTokenRepository struct {
	mu     sync.RWMutex
	byHash map[string]models.AccessToken
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{byHash: make(map[string]models.AccessToken)}
}

func (r *MemoryTokenRepository) Create(_ context.Context, t *models.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.CreatedAt = time.Now()
	r.byHash[t.TokenHash] = *t
	return nil
}

func (r *MemoryTokenRepository) GetByHash(_ context.Context, hash string) (models.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byHash[hash]
	if !ok {
		return models.AccessToken{}, apperr.ErrNotFound
	}
	return t, nil
}

func (r *MemoryTokenRepository) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, t := range r.byHash {
		if t.ID == id {
			t.LastUsedAt = &at
			r.byHash[h] = t
		}
	}
	return nil
}

func (r *MemoryTokenRepository) DeleteByUser(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for h, t := range r.byHash {
		if t.UserID == userID {
			delete(r.byHash, h)
			n++
		}
	}
	return n, nil
}

// Count reports the number of live tokens of a user.
func (r *MemoryTokenRepository) Count(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, t := range r.byHash {
		if t.UserID == userID {
			n++
		}
	}
	return n
}
