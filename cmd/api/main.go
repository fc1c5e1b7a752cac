package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/linyuhan/crmbridge/internal/config"
	"github.com/linyuhan/crmbridge/internal/handler"
	"github.com/linyuhan/crmbridge/internal/model/chat"
	"github.com/linyuhan/crmbridge/internal/odoo"
	"github.com/linyuhan/crmbridge/internal/service/ai"
	"github.com/linyuhan/crmbridge/internal/service/capture"
	chatservice "github.com/linyuhan/crmbridge/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	chatSvc := chatservice.NewService()

	if !cfg.AI.Enabled() {
		log.Fatal("model credentials not configured; set ARK_API_KEY and ARK_MODEL")
	}
	aiSvc, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Println("AI service initialized successfully")

	if !cfg.Odoo.Enabled() {
		log.Println("warning: ERP connection not fully configured; sessions must supply credentials")
	}

	captureSvc := capture.NewService(chatSvc, aiSvc, submitterFactory(cfg.Odoo))
	router := handler.NewRouter(chatSvc, captureSvc)

	startServer(ctx, cfg.Server, router)
}

// submitterFactory merges per-session credential overrides onto the
// server-wide ERP configuration and builds a fresh client per submission.
func submitterFactory(cfg config.OdooConfig) capture.SubmitterFactory {
	return func(creds *chat.OdooCredentials) (capture.Submitter, error) {
		oc := odoo.Config{
			URL:      cfg.URL,
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
			Protocol: cfg.Protocol,
			Timeout:  time.Duration(cfg.Timeout) * time.Second,
		}
		if creds != nil {
			if creds.URL != "" {
				oc.URL = creds.URL
			}
			if creds.Database != "" {
				oc.Database = creds.Database
			}
			if creds.Username != "" {
				oc.Username = creds.Username
			}
			if creds.Password != "" {
				oc.Password = creds.Password
			}
		}
		if oc.Username == "" || oc.Password == "" {
			return nil, fmt.Errorf("missing ERP credentials")
		}
		return odoo.New(oc)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("crmbridge backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
