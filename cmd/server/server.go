package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vaidik343/voipscout/internal/api"
	"github.com/vaidik343/voipscout/internal/classify"
	"github.com/vaidik343/voipscout/internal/config"
	"github.com/vaidik343/voipscout/internal/creds"
	"github.com/vaidik343/voipscout/internal/discovery"
	"github.com/vaidik343/voipscout/internal/enrich"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/paularlott/cli"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the voipscout server",
		Description: "Start the HTTP server exposing the scan, enrichment, and credential APIs",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			log.Configure(cfg.LogLevel, cfg.LogFormat)

			log.Info("Configuration loaded", "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr)

			// Credential store (encrypted SQLite)
			store, err := creds.NewStore(cfg.DataDir)
			if err != nil {
				log.Error("Failed to initialize credential store", "error", err)
				return err
			}
			defer store.Close()
			log.Info("Credential store initialized", "path", cfg.DataDir)

			// Discovery engine
			nmap := discovery.NewNmapRunner(cfg.NmapPath)
			neighbors := discovery.NewNeighborTable()
			engine := discovery.NewEngine(nmap, neighbors)
			if nmap.Available() {
				log.Info("Active scan tool available")
			} else {
				log.Warn("Active scan tool not found, using neighbor table only")
			}

			// Classification and enrichment share the per-family token caches
			caches := enrich.NewTokenCaches()
			classifier := classify.New(
				&classify.DeepScanStrategy{},
				&classify.VendorStrategy{},
				&classify.PortStrategy{},
				classify.NewCredentialProbeStrategy(store, caches),
			)
			enricher := enrich.NewOrchestrator(store, caches)

			// Create API handler
			apiHandler := api.NewHandler(engine, enricher, classifier, nmap, store)

			// Setup HTTP routes
			mux := http.NewServeMux()
			apiHandler.RegisterRoutes(mux)

			// Apply middleware
			var handler http.Handler = mux
			if cfg.IsAPIAuthEnabled() {
				handler = api.AuthMiddleware(cfg.APIAuthToken, handler)
			}
			handler = api.SecurityHeadersMiddleware(handler)

			server := &http.Server{
				Addr:    cfg.ListenAddr,
				Handler: handler,
			}

			// Handle shutdown gracefully
			go func() {
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
				<-sigChan
				log.Info("Shutting down server...")
				server.Close()
			}()

			log.Info("Starting voipscout server", "addr", cfg.ListenAddr)
			log.Info("API available", "url", "http://localhost"+cfg.ListenAddr+"/api/")
			if cfg.IsAPIAuthEnabled() {
				log.Info("API authentication enabled")
			}

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Server error", "error", err)
				return err
			}

			log.Info("Server stopped")
			return nil
		},
	}
}
