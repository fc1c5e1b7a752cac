package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linyuhan/crmbridge/internal/model/chat"
	"github.com/linyuhan/crmbridge/internal/service/capture"
	chatservice "github.com/linyuhan/crmbridge/internal/service/chat"
	"github.com/linyuhan/crmbridge/pkg/utils"
)

// Handler exposes the chat surface over HTTP.
type Handler struct {
	chatSvc    *chatservice.Service
	captureSvc *capture.Service
}

// New creates the chat handler.
func New(chatSvc *chatservice.Service, captureSvc *capture.Service) *Handler {
	return &Handler{chatSvc: chatSvc, captureSvc: captureSvc}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Get("/session/{sessionID}/messages", h.handleTranscript)
	r.Post("/messages", h.handleMessage)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Odoo *chat.OdooCredentials `json:"odoo"`
	}

	// An empty body is fine: the session falls back to the server-wide
	// ERP configuration.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.Odoo)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Content   string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" || payload.Content == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId and content are required")
		return
	}

	result, err := h.captureSvc.HandleTurn(r.Context(), payload.SessionID, payload.Content)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

