package revision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bryanwahyu/compliance-copilot/internal/application"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/contract"
	domain "github.com/bryanwahyu/compliance-copilot/internal/domain/revision"
)

var (
	ErrSessionNotFound = errors.New("revision session not found")
	ErrInvalidInput    = errors.New("invalid revision request")
)

// Service keeps one revision store per review session. The least recently
// used sessions are evicted once the cache is full.
type Service struct {
	sessions *lru.Cache[string, *domain.Store]
	clock    application.Clock
	log      hclog.Logger
}

func NewService(size int, clock application.Clock, log hclog.Logger) (*Service, error) {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	sessions, err := lru.NewWithEvict[string, *domain.Store](size, func(id string, _ *domain.Store) {
		log.Debug("revision session evicted", "session", id)
	})
	if err != nil {
		return nil, err
	}
	return &Service{sessions: sessions, clock: clock, log: log}, nil
}

type CreateCommand struct {
	Text        string                `json:"text"`
	Suggestions []contract.Suggestion `json:"suggestions"`
}

// Session is the transport view of one store.
type Session struct {
	ID string `json:"id"`
	domain.State
	Version *domain.DocumentVersion `json:"version,omitempty"`
	Changed *bool                   `json:"changed,omitempty"`
}

func (s *Service) Create(cmd CreateCommand) (Session, error) {
	if strings.TrimSpace(cmd.Text) == "" {
		return Session{}, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	st, err := domain.New(cmd.Text, cmd.Suggestions, s.clock.Now)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	id := uuid.NewString()
	s.sessions.Add(id, st)
	s.log.Info("revision session created", "session", id, "suggestions", len(cmd.Suggestions))
	return Session{ID: id, State: st.Snapshot()}, nil
}

func (s *Service) Get(id string) (Session, error) {
	st, err := s.store(id)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: id, State: st.Snapshot()}, nil
}

func (s *Service) Accept(id, suggestionID string) (Session, error) {
	st, err := s.store(id)
	if err != nil {
		return Session{}, err
	}
	v, err := st.Accept(suggestionID)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: id, State: st.Snapshot(), Version: &v}, nil
}

func (s *Service) Reject(id, suggestionID string) (Session, error) {
	st, err := s.store(id)
	if err != nil {
		return Session{}, err
	}
	if err := st.Reject(suggestionID); err != nil {
		return Session{}, err
	}
	return Session{ID: id, State: st.Snapshot()}, nil
}

func (s *Service) Revert(id, suggestionID string) (Session, error) {
	st, err := s.store(id)
	if err != nil {
		return Session{}, err
	}
	changed, err := st.Revert(suggestionID)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: id, State: st.Snapshot(), Changed: &changed}, nil
}

func (s *Service) RevertAll(id string) (Session, error) {
	st, err := s.store(id)
	if err != nil {
		return Session{}, err
	}
	st.RevertAll()
	return Session{ID: id, State: st.Snapshot()}, nil
}

func (s *Service) Export(id string) (string, error) {
	st, err := s.store(id)
	if err != nil {
		return "", err
	}
	return st.Export(), nil
}

// Delete drops a session; unknown ids are ignored.
func (s *Service) Delete(id string) {
	s.sessions.Remove(id)
}

func (s *Service) store(id string) (*domain.Store, error) {
	st, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return st, nil
}
