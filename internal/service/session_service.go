package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"surveywizard/internal/cache"
	"surveywizard/internal/model"
	"surveywizard/internal/view"
)

// MsgView is the broadcast message type carrying a rendered view
const MsgView = "view"

// storeTimeout bounds snapshot writes made from controller callbacks
const storeTimeout = 3 * time.Second

// SessionService owns one SurveyController per wizard session
type SessionService struct {
	source      QuestionSource
	surveyID    string
	meta        view.Meta
	timeout     time.Duration
	store       cache.SessionCache
	broadcaster Broadcaster

	mu       sync.RWMutex
	sessions map[string]*SurveyController
}

// NewSessionService creates a new session service. timeout bounds every
// question source call.
func NewSessionService(source QuestionSource, surveyID string, meta view.Meta, timeout time.Duration, store cache.SessionCache) *SessionService {
	return &SessionService{
		source:   source,
		surveyID: surveyID,
		meta:     meta,
		timeout:  timeout,
		store:    store,
		sessions: make(map[string]*SurveyController),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Meta returns the copy shown around the questions
func (s *SessionService) Meta() view.Meta {
	return s.meta
}

// Render draws a snapshot with this service's survey copy
func (s *SessionService) Render(snap model.Snapshot, err error) view.View {
	return view.Render(s.meta, snap, err)
}

// Create opens a new idle session
func (s *SessionService) Create(ctx context.Context, identity model.Identity) (*SurveyController, error) {
	id := "s_" + uuid.New().String()
	ctrl := s.newController(id, identity)

	snap := ctrl.Snapshot()
	if err := s.store.Set(ctx, &snap); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.mu.Lock()
	s.sessions[id] = ctrl
	s.mu.Unlock()

	log.Printf("[Sessions] Created %s (sessionId=%q userId=%q)", id, identity.SessionID, identity.UserID)
	return ctrl, nil
}

// Get returns the controller for a session. The store is authoritative: a
// session that expired or was deleted there is evicted from this process, and
// one this process has not seen yet is restored from it.
func (s *SessionService) Get(ctx context.Context, id string) (*SurveyController, error) {
	snap, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if snap == nil {
		s.evict(id)
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.sessions[id]; ok {
		return ctrl, nil
	}
	ctrl := s.newController(id, snap.Identity)
	ctrl.Restore(*snap)
	s.sessions[id] = ctrl
	log.Printf("[Sessions] Restored %s in state %s", id, snap.State)
	return ctrl, nil
}

// Sweep evicts every controller whose session is gone from the store and
// returns how many were dropped
func (s *SessionService) Sweep(ctx context.Context) int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, id := range ids {
		snap, err := s.store.Get(ctx, id)
		if err != nil {
			log.Printf("[Sessions] ERROR: Sweep failed to load %s: %v", id, err)
			continue
		}
		if snap == nil && s.evict(id) {
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("[Sessions] Swept %d expired sessions", evicted)
	}
	return evicted
}

// RunSweeper calls Sweep every interval until ctx is done
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// evict drops a controller from this process and stops its updates
func (s *SessionService) evict(id string) bool {
	s.mu.Lock()
	ctrl, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		ctrl.Close()
	}
	return ok
}

// Delete forgets a session and closes its live connections
func (s *SessionService) Delete(ctx context.Context, id string) error {
	// detach first so an in-flight submission cannot write the session back
	ok := s.evict(id)

	snap, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if !ok && snap == nil {
		return ErrSessionNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.DisconnectSession(id)
	}
	log.Printf("[Sessions] Deleted %s", id)
	return nil
}

func (s *SessionService) newController(id string, identity model.Identity) *SurveyController {
	ctrl := NewSurveyController(id, s.surveyID, identity, s.source, s.timeout)
	ctrl.SetObserver(s.onChange)
	return ctrl
}

// onChange persists and broadcasts every state change
func (s *SessionService) onChange(snap model.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.Set(ctx, &snap); err != nil {
		log.Printf("[Sessions] ERROR: Failed to save %s: %v", snap.ID, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(snap.ID, MsgView, s.Render(snap, nil))
	}
}
