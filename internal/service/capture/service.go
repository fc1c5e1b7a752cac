package capture

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/linyuhan/crmbridge/internal/model/chat"
	"github.com/linyuhan/crmbridge/internal/model/lead"
	"github.com/linyuhan/crmbridge/internal/service/ai"
	chatservice "github.com/linyuhan/crmbridge/internal/service/chat"
)

// Generator produces assistant replies and structured lead extractions.
// Implemented by the AI service; faked in tests.
type Generator interface {
	Reply(ctx context.Context, history []chat.Message, userMessage string) (string, error)
	ExtractLead(ctx context.Context, history []chat.Message) (lead.Lead, error)
}

// Submitter is the slice of the ERP client the capture flow needs.
type Submitter interface {
	Authenticate(ctx context.Context) error
	CreateLead(ctx context.Context, values map[string]any) (int64, error)
}

// SubmitterFactory builds a submitter for one session, applying any
// per-session credential overrides.
type SubmitterFactory func(creds *chat.OdooCredentials) (Submitter, error)

// Service drives the lead-capture conversation: collecting until the
// generator emits the sentinel, then one extraction and one lead creation.
type Service struct {
	chats        *chatservice.Service
	generator    Generator
	newSubmitter SubmitterFactory
}

// NewService wires the capture flow.
func NewService(chats *chatservice.Service, generator Generator, newSubmitter SubmitterFactory) *Service {
	return &Service{chats: chats, generator: generator, newSubmitter: newSubmitter}
}

// TurnResult is what one user turn produces.
type TurnResult struct {
	Reply  string `json:"reply"`
	State  string `json:"state"`
	LeadID int64  `json:"leadId,omitempty"`
	// CaptureError carries the user-visible submission problem for this
	// turn (extraction parse, authentication, or transport failure). The
	// conversation continues regardless.
	CaptureError string `json:"captureError,omitempty"`
}

// HandleTurn processes one user message: append to the transcript, generate
// the reply, and, when the sentinel appears in a collecting session, run the
// extraction and the single create call.
func (s *Service) HandleTurn(ctx context.Context, sessionID, content string) (TurnResult, error) {
	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	history, err := s.chats.LoadTranscript(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	reply, err := s.generator.Reply(ctx, history, content)
	if err != nil {
		// The source surfaces generation failures as the reply text itself.
		reply = fmt.Sprintf("Error generating response: %v", err)
	}

	userMsg := chat.Message{SessionID: sessionID, Sender: chat.SenderUser, Content: content}
	if saveErr := s.chats.SaveMessage(ctx, userMsg); saveErr != nil {
		return TurnResult{}, saveErr
	}
	assistantMsg := chat.Message{SessionID: sessionID, Sender: chat.SenderAssistant, Content: reply}
	if saveErr := s.chats.SaveMessage(ctx, assistantMsg); saveErr != nil {
		return TurnResult{}, saveErr
	}

	result := TurnResult{Reply: reply, State: session.State}
	if err != nil || session.State != chat.StateCollecting || !strings.Contains(reply, ai.Sentinel) {
		return result, nil
	}

	transcript := append(append(history, userMsg), assistantMsg)
	result = s.submit(ctx, session, transcript, result)
	return result, nil
}

// submit runs the extraction call and, on success, one authenticate plus one
// create against the ERP. Each failure cause surfaces its own message and
// leaves the session collecting, so the next turn can retry.
func (s *Service) submit(ctx context.Context, session chat.Session, transcript []chat.Message, result TurnResult) TurnResult {
	extracted, err := s.generator.ExtractLead(ctx, transcript)
	if err != nil {
		log.Printf("[capture] extraction failed for session=%s: %v", session.ID, err)
		result.CaptureError = fmt.Sprintf("Failed to extract lead details: %v", err)
		return result
	}

	submitter, err := s.newSubmitter(session.Odoo)
	if err != nil {
		log.Printf("[capture] submitter unavailable for session=%s: %v", session.ID, err)
		result.CaptureError = fmt.Sprintf("ERP connection not configured: %v", err)
		return result
	}

	if err := submitter.Authenticate(ctx); err != nil {
		log.Printf("[capture] authentication failed for session=%s: %v", session.ID, err)
		result.CaptureError = "Odoo authentication failed. Please check credentials."
		return result
	}

	leadID, err := submitter.CreateLead(ctx, extracted.Values())
	if err != nil {
		log.Printf("[capture] lead creation failed for session=%s: %v", session.ID, err)
		result.CaptureError = fmt.Sprintf("Error creating lead: %v", err)
		return result
	}

	if err := s.chats.MarkSubmitted(ctx, session.ID, leadID); err != nil {
		log.Printf("[capture] failed to mark session=%s submitted: %v", session.ID, err)
	}

	log.Printf("[capture] lead created for session=%s, id=%d", session.ID, leadID)
	result.State = chat.StateSubmitted
	result.LeadID = leadID
	return result
}
