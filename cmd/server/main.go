package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"muscledynamics/workout-planner/internal/api"
	"muscledynamics/workout-planner/internal/app"
	"muscledynamics/workout-planner/internal/config"

	"github.com/gin-gonic/gin"
)

// @title Workout Planner Catalog API
// @version 1.0
// @description Exercise filtering and reference data for the workout planner wizard.
// @host localhost:8080
func main() {
	log.Println("Starting Workout Planner API...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Printf("Configuration loaded (driver=%s, storage=%s).", cfg.Database.Driver, cfg.Storage.Driver)

	// --- Catalog Store ---
	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	backend, err := app.OpenBackend(startCtx, cfg.Database)
	if err != nil {
		log.Fatalf("FATAL: Could not open catalog store: %v", err)
	}
	defer backend.Close()
	log.Println("Catalog store connection established.")

	// --- Initialize Services ---
	log.Println("Initializing services...")
	exerciseService, err := app.NewExerciseService(startCtx, &cfg, backend.Repo)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	if err := app.SeedIfEmpty(startCtx, exerciseService, cfg.Database.SeedFile); err != nil {
		log.Printf("ERROR: Failed to import seed file %s: %v", cfg.Database.SeedFile, err)
	}
	cancelStart()

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.Server.BasePath, cfg.Server.ClientOrigin, exerciseService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Catalog.QueryTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// In-flight requests get 5 seconds to finish.
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
