package application

import (
	"log/slog"
	"sync"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/bnema/taskgate/internal/ports"
	"github.com/google/uuid"
)

// Gate is the read side of a session that task operations consult.
type Gate interface {
	IsAuthenticated() bool
	CurrentUser() (domain.Identity, error)
}

// Session holds at most one authenticated identity. The wiring layer builds
// one per process and hands it to every task operation.
type Session struct {
	mu     sync.RWMutex
	state  domain.SessionState
	clock  ports.Clock
	logger *slog.Logger
	newID  func() string
}

var _ Gate = (*Session)(nil)

func NewSession(clock ports.Clock, logger *slog.Logger) *Session {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Session{
		clock:  clock,
		logger: loggerOrDiscard(logger),
		newID:  uuid.NewString,
	}
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Authenticated
}

func (s *Session) CurrentUser() (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.state.Authenticated {
		return "", domain.ErrNoSession
	}

	return s.state.Identity, nil
}

// Login authenticates the session. Logging in while already authenticated
// replaces the previous identity.
func (s *Session) Login(displayName string, identity domain.Identity) error {
	if identity == "" {
		return domain.ErrEmptyIdentity
	}

	s.mu.Lock()
	previous := s.state
	s.state = domain.SessionState{
		ID:            s.newID(),
		Identity:      identity,
		DisplayName:   displayName,
		Authenticated: true,
		StartedAt:     s.clock.Now(),
	}
	current := s.state
	s.mu.Unlock()

	if previous.Authenticated {
		s.logger.Info("session replaced",
			"session_id", current.ID,
			"identity", current.Identity,
			"previous_identity", previous.Identity,
		)
		return nil
	}

	s.logger.Info("session started", "session_id", current.ID, "identity", current.Identity)
	return nil
}

func (s *Session) Logout() {
	s.mu.Lock()
	previous := s.state
	s.state = domain.SessionState{}
	s.mu.Unlock()

	if previous.Authenticated {
		s.logger.Info("session ended", "session_id", previous.ID, "identity", previous.Identity)
	}
}

func (s *Session) Snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Check fails with domain.ErrUnauthenticated when no identity is logged in.
func (s *Session) Check() error {
	return checkAuthenticated(s)
}

// RequireAuthenticated wraps op so that it only runs for an authenticated
// gate. Otherwise the wrapper returns domain.ErrUnauthenticated and op is
// never invoked.
func RequireAuthenticated[T any](gate Gate, op func() (T, error)) func() (T, error) {
	return func() (T, error) {
		if err := checkAuthenticated(gate); err != nil {
			var zero T
			return zero, err
		}

		return op()
	}
}

func checkAuthenticated(gate Gate) error {
	if gate == nil || !gate.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}

	return nil
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return logger
}
