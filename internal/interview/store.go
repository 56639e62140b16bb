package interview

import (
	"fmt"
	"sync"

	"github.com/care-router-mcp-server/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// DefaultSessionCapacity bounds the number of live sessions when unconfigured
const DefaultSessionCapacity = 1000

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Store keeps hosted sessions in a bounded LRU. When full, the least recently used
// session is dropped.
type Store struct {
	cache  *lru.Cache[string, *entry]
	logger *logrus.Logger
}

// NewStore creates a session store holding at most capacity sessions
func NewStore(capacity int, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}

	cache, err := lru.NewWithEvict[string, *entry](capacity, func(id string, _ *entry) {
		logger.WithField("interview_id", id).Debug("Interview session evicted")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &Store{cache: cache, logger: logger}, nil
}

// Create opens a new session for the demographics
func (st *Store) Create(demographics domain.Demographics) (*Session, error) {
	s, err := NewSession(demographics)
	if err != nil {
		return nil, err
	}
	st.cache.Add(s.ID, &entry{session: s})
	return s, nil
}

// Get returns the session for id. Callers that mutate the session must use With.
func (st *Store) Get(id string) (*Session, error) {
	e, ok := st.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("interview %s: %w", id, domain.ErrNotFound)
	}
	return e.session, nil
}

// With runs fn while holding the session's lock
func (st *Store) With(id string, fn func(*Session) error) error {
	e, ok := st.cache.Get(id)
	if !ok {
		return fmt.Errorf("interview %s: %w", id, domain.ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Delete removes the session, reporting whether it existed
func (st *Store) Delete(id string) bool {
	return st.cache.Remove(id)
}

func (st *Store) Len() int {
	return st.cache.Len()
}
