package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/address-eligibility/internal/api"
	"github.com/ignite/address-eligibility/internal/app"
	"github.com/ignite/address-eligibility/internal/config"
	"github.com/ignite/address-eligibility/internal/pkg/logger"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	return ln.Close()
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, "address-eligibility")
	defer logger.Sync()

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Request-body imports always work; S3 imports need a configured bucket.
	var objects api.ObjectSource
	if a.Objects != nil {
		objects = a.Objects
	}
	handlers := api.NewHandlers(a.Eligibility,
		api.WithLists(a.Lists),
		api.WithImporter(a.Importer, objects),
		api.WithAuditReader(a.AuditLog),
		api.WithMetrics(a.Metrics, a.Registry),
	)
	health := api.NewHealthChecker(a.AdminDB, a.Connector, a.Redis)
	server := api.NewServer(cfg.Server, handlers, health)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server: listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("server: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server: shutdown error", "error", err)
	}
	logger.Info("server: stopped")
}
