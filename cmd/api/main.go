package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"crf-trainer/cmd"
	"crf-trainer/internal/api"
)

func main() {
	envFile := flag.String("env", "", "path to load env from")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	cmd.SetupLogging(*logLevel)
	log.Println("Starting run report server...")

	cfg := cmd.LoadConfig(*envFile)
	db := cmd.OpenRegistry(cfg)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: api.NewRouter(db),
	}

	ctx, stop := cmd.SignalContext()
	defer stop()

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
