package profile

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory [Repository]. It backs DB-less
// deployments and tests; preferences are lost on restart.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[string]string
	guilds map[string]string
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[string]string),
		guilds: make(map[string]string),
	}
}

// FindByUser implements [Repository].
func (r *MemoryRepository) FindByUser(_ context.Context, userID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.users[userID]
	return id, ok, nil
}

// FindByGuild implements [Repository].
func (r *MemoryRepository) FindByGuild(_ context.Context, guildID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.guilds[guildID]
	return id, ok, nil
}

// SaveUser implements [Repository].
func (r *MemoryRepository) SaveUser(_ context.Context, userID, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = profileID
	return nil
}

// SaveGuild implements [Repository].
func (r *MemoryRepository) SaveGuild(_ context.Context, guildID, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guilds[guildID] = profileID
	return nil
}

// DeleteUser implements [Repository].
func (r *MemoryRepository) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userID)
	return nil
}

// DeleteGuild implements [Repository].
func (r *MemoryRepository) DeleteGuild(_ context.Context, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.guilds, guildID)
	return nil
}
