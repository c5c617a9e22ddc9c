package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookie/internal/config"
	"bookie/internal/httpapi"
	"bookie/internal/logging"
	"bookie/internal/metrics"
	"bookie/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "./configs/bookie.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level)
	metrics.Init()

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("setup tracing: %v", err)
	}

	svc, err := httpapi.NewBuilder(cfg, logger).Build()
	if err != nil {
		log.Fatalf("build service: %v", err)
	}
	srv := svc.Server

	go func() {
		logger.Info("listening", "addr", srv.Addr, "cacheBackend", cfg.Cache.Backend)
		if svc.TLS.Enabled {
			if err := srv.ListenAndServeTLS(svc.TLS.CertFile, svc.TLS.KeyFile); err != nil && err != http.ErrServerClosed {
				log.Fatalf("server TLS error: %v", err)
			}
		} else {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("server error: %v", err)
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err.Error())
	}
	if err := svc.Close(); err != nil {
		logger.Error("close icon store", "error", err.Error())
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("flush traces", "error", err.Error())
	}
}
