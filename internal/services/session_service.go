package services

import (
	"sync"

	cache "github.com/patrickmn/go-cache"
)

// SessionService holds per-thread conversation history for the command
// resolver. Threads are created on first use, kept in process memory with no
// expiry, and lost on restart.
type SessionService struct {
	sessions *cache.Cache
	mu       sync.Mutex
}

// NewSessionService creates an empty session store
func NewSessionService() *SessionService {
	return &SessionService{
		sessions: cache.New(cache.NoExpiration, 0),
	}
}

// Messages returns a copy of the thread's message log.
// An unknown thread id yields an empty log.
func (s *SessionService) Messages(threadID string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, found := s.sessions.Get(threadID)
	if !found {
		return nil
	}
	messages := value.([]map[string]interface{})
	copied := make([]map[string]interface{}, len(messages))
	copy(copied, messages)
	return copied
}

// SetMessages replaces the thread's message log after a completed turn
func (s *SessionService) SetMessages(threadID string, messages []map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Set(threadID, messages, cache.NoExpiration)
}

// Count returns the number of live threads
func (s *SessionService) Count() int {
	return s.sessions.ItemCount()
}
