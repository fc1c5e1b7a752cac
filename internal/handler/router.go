package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/linyuhan/crmbridge/internal/handler/chat"
	middlewarePkg "github.com/linyuhan/crmbridge/internal/middleware"
	"github.com/linyuhan/crmbridge/internal/service/capture"
	chatService "github.com/linyuhan/crmbridge/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, captureSvc *capture.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chat := chatHandler.New(chatSvc, captureSvc)
	ws := chatHandler.NewWebSocketHandler(chatSvc, captureSvc)

	r.Route("/api", func(api chi.Router) {
		chat.RegisterRoutes(api)
		ws.RegisterRoutes(api)
	})

	return r
}
