package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linyuhan/crmbridge/internal/model/chat"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadySubmitted = errors.New("session already submitted a lead")
)

// Service encapsulates conversation state management. Transcripts are
// append-only and live only for the process lifetime.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
	}
}

// CreateSession provisions an anonymous session in the collecting state.
// creds optionally overrides the server-wide ERP connection for this session
// and is never persisted.
func (s *Service) CreateSession(_ context.Context, creds *chat.OdooCredentials) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		State:     chat.StateCollecting,
		CreatedAt: time.Now().UTC(),
		Odoo:      creds,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends a message to the session transcript.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// MarkSubmitted moves a session to its terminal state and records the
// remote-assigned lead identifier. A session submits at most once.
func (s *Service) MarkSubmitted(_ context.Context, sessionID string, leadID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if session.State == chat.StateSubmitted {
		return ErrAlreadySubmitted
	}

	session.State = chat.StateSubmitted
	session.LeadID = leadID
	s.sessions[sessionID] = session
	return nil
}
