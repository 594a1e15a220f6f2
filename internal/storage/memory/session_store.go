package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/storage"
)

// SessionStore is an in-memory implementation of storage.SessionStore.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Session // keyed by visitor_id|visit_id
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		data: make(map[string]*domain.Session),
	}
}

func sessionKey(visitorID string, visitID int64) string {
	return fmt.Sprintf("%s|%d", visitorID, visitID)
}

// Insert adds a new session. Returns ErrDuplicateKey if the natural key exists.
func (s *SessionStore) Insert(_ context.Context, sess *domain.Session) error {
	if sess == nil || sess.VisitorID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(sess.VisitorID, sess.VisitID)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = copySession(sess)
	return nil
}

// InsertBulk adds multiple sessions atomically. Fails entire batch on any duplicate.
func (s *SessionStore) InsertBulk(_ context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(sessions))

	for _, sess := range sessions {
		if sess == nil || sess.VisitorID == "" {
			return storage.ErrInvalidInput
		}
		key := sessionKey(sess.VisitorID, sess.VisitID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, sess := range sessions {
		s.data[sessionKey(sess.VisitorID, sess.VisitID)] = copySession(sess)
	}

	return nil
}

// GetByVisitorID retrieves all sessions for a visitor, ordered by session_date ASC, visit_id ASC.
func (s *SessionStore) GetByVisitorID(_ context.Context, visitorID string) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Session
	for _, sess := range s.data {
		if sess.VisitorID == visitorID {
			result = append(result, copySession(sess))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].SessionDate.Equal(result[j].SessionDate) {
			return result[i].SessionDate.Before(result[j].SessionDate)
		}
		return result[i].VisitID < result[j].VisitID
	})

	return result, nil
}

// GetByDateRange retrieves sessions within [start, end] (inclusive),
// ordered by visitor_id ASC, visit_id ASC.
func (s *SessionStore) GetByDateRange(_ context.Context, start, end time.Time) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := domain.DateWindow{Start: domain.Day(start), End: domain.Day(end)}

	var result []*domain.Session
	for _, sess := range s.data {
		if window.Contains(sess.SessionDate) {
			result = append(result, copySession(sess))
		}
	}

	sortByNaturalKey(result)
	return result, nil
}

// GetAll retrieves every session, ordered by visitor_id ASC, visit_id ASC.
func (s *SessionStore) GetAll(_ context.Context) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Session, 0, len(s.data))
	for _, sess := range s.data {
		result = append(result, copySession(sess))
	}

	sortByNaturalKey(result)
	return result, nil
}

func sortByNaturalKey(sessions []*domain.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].VisitorID != sessions[j].VisitorID {
			return sessions[i].VisitorID < sessions[j].VisitorID
		}
		return sessions[i].VisitID < sessions[j].VisitID
	})
}

// copySession deep-copies a session so callers cannot mutate stored state.
func copySession(s *domain.Session) *domain.Session {
	c := *s
	if s.IsFirstVisit != nil {
		v := *s.IsFirstVisit
		c.IsFirstVisit = &v
	}
	if s.Bounced != nil {
		v := *s.Bounced
		c.Bounced = &v
	}
	if s.TimeOnSiteSec != nil {
		v := *s.TimeOnSiteSec
		c.TimeOnSiteSec = &v
	}
	if s.Pageviews != nil {
		v := *s.Pageviews
		c.Pageviews = &v
	}
	if s.Country != nil {
		v := *s.Country
		c.Country = &v
	}
	if s.Transactions != nil {
		v := *s.Transactions
		c.Transactions = &v
	}
	if s.Hits != nil {
		c.Hits = make([]domain.Hit, len(s.Hits))
		copy(c.Hits, s.Hits)
	}
	return &c
}

var _ storage.SessionStore = (*SessionStore)(nil)
