package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/safar-giki/safar-backend/internal/models"
	"github.com/safar-giki/safar-backend/internal/storage"
)

// DefaultSessionTTL is how long an idle conversation keeps its place
// before being reset to the root menu.
const DefaultSessionTTL = 30 * time.Minute

// SessionManager mediates all access to conversation sessions. The store
// exposes plain load/save, so the manager supplies the per-user critical
// section: two webhook deliveries for the same number are serialized, and
// a load-mutate-save can never lose an update to a racing event.
type SessionManager struct {
	store storage.Store
	ttl   time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionManager creates a new session manager
func NewSessionManager(store storage.Store, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		store: store,
		ttl:   ttl,
		locks: make(map[string]*sync.Mutex),
	}
}

func (sm *SessionManager) userLock(userID string) *sync.Mutex {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	lock, exists := sm.locks[userID]
	if !exists {
		lock = &sync.Mutex{}
		sm.locks[userID] = lock
	}
	return lock
}

// With loads the user's session, runs fn on it under the per-user lock,
// and saves the result. The session is saved only when fn returns no
// error, so a transient failure leaves the persisted state untouched and
// the user's next message retries the same step.
//
// Before fn runs the manager applies two local recoveries: a session idle
// beyond the TTL is reset to the root menu with its context discarded,
// and a session whose state is outside the closed set (for example after
// a schema change) is reset the same way.
func (sm *SessionManager) With(userID string, fn func(*models.Session) error) error {
	lock := sm.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session, err := sm.store.GetSession(userID)
	if errors.Is(err, storage.ErrNotFound) {
		session = models.NewSession(userID)
		err = nil
	}
	if err != nil {
		return err
	}

	if session.Context == nil {
		session.Context = make(map[string]string)
	}
	if time.Since(session.UpdatedAt) > sm.ttl && session.State != models.StateRootMenu {
		log.Printf("Session for %s idle since %s, resetting to root menu", userID, session.UpdatedAt.Format(time.RFC3339))
		session.Reset()
	}
	if !models.ValidState(session.State) {
		log.Printf("Session for %s has unknown state %q, resetting to root menu", userID, session.State)
		session.Reset()
	}

	if err := fn(session); err != nil {
		return err
	}

	session.UpdatedAt = time.Now()
	return sm.store.SaveSession(session)
}

// Peek returns the current session without locking or mutation, for
// monitoring endpoints only.
func (sm *SessionManager) Peek(userID string) (*models.Session, error) {
	return sm.store.GetSession(userID)
}
