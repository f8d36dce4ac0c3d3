package storage

import (
	"errors"
	"sort"
	"sync"
	"time"

	"form-analyzer/pkg/models"
)

var ErrSessionNotFound = errors.New("session not found")

// MemoryStore keeps session bookkeeping for the lifetime of the process.
type MemoryStore interface {
	StoreSession(info *models.SessionInfo) error
	GetSession(id string) (*models.SessionInfo, error)
	GetUserSessions(userID string) ([]*models.SessionInfo, error)
	UpdateSessionStatus(id string, status models.SessionStatus) error
}

type memoryStore struct {
	sessions map[string]*models.SessionInfo
	mu       sync.RWMutex
}

func NewMemoryStore() MemoryStore {
	return &memoryStore{
		sessions: make(map[string]*models.SessionInfo),
	}
}

func (s *memoryStore) StoreSession(info *models.SessionInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *info
	s.sessions[info.ID] = &c
	return nil
}

func (s *memoryStore) GetSession(id string) (*models.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}

	c := *info
	return &c, nil
}

// GetUserSessions returns the user's sessions, newest first.
func (s *memoryStore) GetUserSessions(userID string) ([]*models.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.SessionInfo
	for _, info := range s.sessions {
		if info.UserID == userID {
			c := *info
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })

	return out, nil
}

func (s *memoryStore) UpdateSessionStatus(id string, status models.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, exists := s.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}

	info.Status = status
	if status == models.SessionStopped && info.StoppedAt.IsZero() {
		info.StoppedAt = time.Now()
	}
	return nil
}
