package services

import (
	"context"
	"sync"
	"time"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/errs"
	lru "github.com/hashicorp/golang-lru"
)

// Wizard stages for staging a submission before it is handed to the
// distributor.
const (
	StageType    = "type"
	StageDetails = "details"
	StageGift    = "gift"
	StageConfirm = "confirm"
)

// SubmissionSession stages one user's in-progress submission. A session
// is owned exclusively by the user who opened it and expires after the
// configured TTL; nothing here is shared mutable state.
type SubmissionSession struct {
	UserID     string
	Stage      string
	Type       string
	Attributes models.SubmissionAttributes
	IsGift     bool
	GiftTo     string
	External   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SessionService is the TTL-bounded store for submission wizard sessions,
// keyed by user id. The LRU bound keeps a misbehaving client from
// growing the store without bound; the sweep loop expires idle sessions.
type SessionService struct {
	cache *lru.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

func NewSessionService(maxSessions int, ttl time.Duration) *SessionService {
	cache, _ := lru.New(maxSessions)
	return &SessionService{
		cache: cache,
		ttl:   ttl,
	}
}

// Begin opens a fresh session for the user, replacing any stale one.
func (s *SessionService) Begin(userID string) (*SubmissionSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.get(userID); existing != nil {
		return nil, errs.Conflict("a submission is already in progress")
	}

	now := time.Now()
	session := &SubmissionSession{
		UserID:    userID,
		Stage:     StageType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.cache.Add(userID, session)
	return session, nil
}

// Get returns the user's live session, or a NotFoundError if none exists
// or it has expired.
func (s *SessionService) Get(userID string) (*SubmissionSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.get(userID)
	if session == nil {
		return nil, errs.NotFound("submission session", userID)
	}
	return session, nil
}

// Update applies fn to the user's session and refreshes its TTL.
func (s *SessionService) Update(userID string, fn func(*SubmissionSession)) (*SubmissionSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.get(userID)
	if session == nil {
		return nil, errs.NotFound("submission session", userID)
	}
	fn(session)
	session.UpdatedAt = time.Now()
	s.cache.Add(userID, session)
	return session, nil
}

// End discards the user's session, typically after confirmation or
// cancellation.
func (s *SessionService) End(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(userID)
}

// get returns a live session or nil, evicting it if expired. Callers
// hold s.mu.
func (s *SessionService) get(userID string) *SubmissionSession {
	v, ok := s.cache.Get(userID)
	if !ok {
		return nil
	}
	session := v.(*SubmissionSession)
	if time.Since(session.UpdatedAt) > s.ttl {
		s.cache.Remove(userID)
		return nil
	}
	return session
}

// StartCleanupRoutine sweeps expired sessions in the background until the
// context is done.
func (s *SessionService) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(s.ttl / 2)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *SessionService) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range s.cache.Keys() {
		if v, ok := s.cache.Peek(key); ok {
			if time.Since(v.(*SubmissionSession).UpdatedAt) > s.ttl {
				s.cache.Remove(key)
			}
		}
	}
}
