package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/linyuhan/crmbridge/internal/model/chat"
	"github.com/linyuhan/crmbridge/internal/model/lead"
	"github.com/linyuhan/crmbridge/internal/service/ai"
	"github.com/linyuhan/crmbridge/internal/service/capture"
	chatservice "github.com/linyuhan/crmbridge/internal/service/chat"
)

type fakeGenerator struct {
	reply     string
	extracted lead.Lead
}

func (g *fakeGenerator) Reply(ctx context.Context, history []chatmodel.Message, userMessage string) (string, error) {
	return g.reply, nil
}

func (g *fakeGenerator) ExtractLead(ctx context.Context, history []chatmodel.Message) (lead.Lead, error) {
	return g.extracted, nil
}

type fakeSubmitter struct {
	leadID int64
	creds  *chatmodel.OdooCredentials
}

func (s *fakeSubmitter) Authenticate(ctx context.Context) error { return nil }

func (s *fakeSubmitter) CreateLead(ctx context.Context, values map[string]any) (int64, error) {
	return s.leadID, nil
}

func newTestRouter(gen *fakeGenerator, submitter *fakeSubmitter) (chi.Router, *chatservice.Service) {
	chatSvc := chatservice.NewService()
	captureSvc := capture.NewService(chatSvc, gen, func(creds *chatmodel.OdooCredentials) (capture.Submitter, error) {
		submitter.creds = creds
		return submitter, nil
	})

	r := chi.NewRouter()
	New(chatSvc, captureSvc).RegisterRoutes(r)
	return r, chatSvc
}

func TestCreateSessionEmptyBody(t *testing.T) {
	r, _ := newTestRouter(&fakeGenerator{}, &fakeSubmitter{})

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var session chatmodel.Session
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if session.ID == "" {
		t.Fatal("session ID missing")
	}
	if session.State != chatmodel.StateCollecting {
		t.Fatalf("unexpected state: %s", session.State)
	}
}

func TestCreateSessionWithCredentials(t *testing.T) {
	gen := &fakeGenerator{
		reply:     "Done. " + ai.Sentinel,
		extracted: lead.Lead{Name: "Alice", Email: "alice@example.com", Requirements: "CRM"},
	}
	submitter := &fakeSubmitter{leadID: 9}
	r, _ := newTestRouter(gen, submitter)

	body := `{"odoo":{"url":"http://erp.internal:8069","database":"prod","username":"bot","password":"secret"}}`
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var session chatmodel.Session
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode err: %v", err)
	}

	// Credentials must not leak back out in the response.
	if bytes.Contains(rec.Body.Bytes(), []byte("secret")) {
		t.Fatal("credentials echoed in response")
	}

	turn := postMessage(t, r, session.ID, "everything you need")
	if turn.State != chatmodel.StateSubmitted {
		t.Fatalf("unexpected state: %s", turn.State)
	}
	if submitter.creds == nil || submitter.creds.Database != "prod" {
		t.Fatalf("per-session credentials not passed to submitter: %+v", submitter.creds)
	}
}

func TestPostMessageReturnsTurn(t *testing.T) {
	gen := &fakeGenerator{reply: "What's your email?"}
	r, chatSvc := newTestRouter(gen, &fakeSubmitter{})

	session, err := chatSvc.CreateSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	turn := postMessage(t, r, session.ID, "I'm Alice")
	if turn.Reply != "What's your email?" {
		t.Fatalf("unexpected reply: %q", turn.Reply)
	}
	if turn.State != chatmodel.StateCollecting {
		t.Fatalf("unexpected state: %s", turn.State)
	}
}

func TestPostMessageUnknownSession(t *testing.T) {
	r, _ := newTestRouter(&fakeGenerator{reply: "hi"}, &fakeSubmitter{})

	body := `{"sessionId":"missing","content":"Hi"}`
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestPostMessageMissingFields(t *testing.T) {
	r, _ := newTestRouter(&fakeGenerator{reply: "hi"}, &fakeSubmitter{})

	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(`{"content":"Hi"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestGetTranscript(t *testing.T) {
	gen := &fakeGenerator{reply: "Hello!"}
	r, chatSvc := newTestRouter(gen, &fakeSubmitter{})

	session, err := chatSvc.CreateSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	postMessage(t, r, session.ID, "Hi")

	req := httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/messages", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var messages []chatmodel.Message
	if err := json.NewDecoder(rec.Body).Decode(&messages); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("unexpected transcript length: %d", len(messages))
	}
	if messages[0].Sender != chatmodel.SenderUser || messages[1].Sender != chatmodel.SenderAssistant {
		t.Fatalf("unexpected senders: %s, %s", messages[0].Sender, messages[1].Sender)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := newTestRouter(&fakeGenerator{}, &fakeSubmitter{})

	req := httptest.NewRequest(http.MethodGet, "/session/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func postMessage(t *testing.T, r chi.Router, sessionID, content string) capture.TurnResult {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"sessionId": sessionID, "content": content})
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", rec.Code, rec.Body.String())
	}
	var turn capture.TurnResult
	if err := json.NewDecoder(rec.Body).Decode(&turn); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	return turn
}
