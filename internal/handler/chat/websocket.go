package chat

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/linyuhan/crmbridge/internal/service/capture"
	chatservice "github.com/linyuhan/crmbridge/internal/service/chat"
)

// WebSocketHandler serves the live chat surface: one duplex connection per
// session, user messages in, turn results out.
type WebSocketHandler struct {
	chatSvc    *chatservice.Service
	captureSvc *capture.Service
	upgrader   websocket.Upgrader
}

// NewWebSocketHandler creates the websocket chat handler.
func NewWebSocketHandler(chatSvc *chatservice.Service, captureSvc *capture.Service) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc:    chatSvc,
		captureSvc: captureSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type outgoingMessage struct {
	Type      string              `json:"type"`
	SessionID string              `json:"sessionId,omitempty"`
	Turn      *capture.TurnResult `json:"turn,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened for session=%s", sessionID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error for session=%s: %v", sessionID, err)
			}
			return
		}

		if inbound.Content == "" {
			h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: "content is required"})
			continue
		}

		result, err := h.captureSvc.HandleTurn(r.Context(), sessionID, inbound.Content)
		if err != nil {
			h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: err.Error()})
			continue
		}

		h.send(conn, outgoingMessage{Type: "turn", SessionID: sessionID, Turn: &result})
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
