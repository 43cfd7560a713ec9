package forms

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/service/addstone"
)

// ErrSessionNotFound is returned for unknown or expired form session ids.
var ErrSessionNotFound = errors.New("form session not found")

// Session is one open add-stone form.
type Session struct {
	ID         string
	Controller *addstone.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry handles the add-stone form sessions opened over HTTP.
type Registry struct {
	creator addstone.StoneCreator
	delay   time.Duration
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose forms submit through creator.
func NewRegistry(creator addstone.StoneCreator, navigateDelay, ttl time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		creator:  creator,
		delay:    navigateDelay,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open creates a new form session with default values.
func (r *Registry) Open() *Session {
	id := uuid.NewString()
	logger := r.logger.With(zap.String("form_id", id))

	nav := addstone.NavigatorFunc(func(route string) {
		logger.Info("form navigated", zap.String("route", route))
	})

	session := &Session{
		ID: id,
		Controller: addstone.NewController(r.creator, nav, addstone.Options{
			NavigateDelay: r.delay,
			Logger:        logger,
			Now:           r.now,
		}),
		lastSeen: r.now(),
	}

	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()

	logger.Debug("form opened")
	return session
}

// Get retrieves a session and marks it as recently used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.touch(r.now())
	return session, nil
}

// Close tears down and forgets a session.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	session.Controller.Close()
	return nil
}

// Sweep closes sessions idle for longer than the registry TTL and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.idleSince().Before(cutoff) {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		session.Controller.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("swept idle form sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
