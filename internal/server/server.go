package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"joinworks/internal/ai"
	"joinworks/internal/automation"
	"joinworks/internal/database"
	"joinworks/internal/debounce"
	"joinworks/internal/storage"
)

// recomputeWindow is how long a quote's totals recompute waits for further
// line autosaves before running.
const recomputeWindow = 500 * time.Millisecond

type Server struct {
	port      int
	db        database.Service
	s3Service *storage.S3Service
	aiClient  *ai.Client
	recompute *debounce.Debouncer
	scheduler *automation.Scheduler
}

func (s *Server) GetDB() database.Service {
	return s.db
}

func (s *Server) GetS3Service() *storage.S3Service {
	return s.s3Service
}

func (s *Server) GetAIClient() *ai.Client {
	return s.aiClient
}

func (s *Server) GetRecomputer() *debounce.Debouncer {
	return s.recompute
}

func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	s3Service, err := storage.NewS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}

	db := database.New()

	NewServer := &Server{
		port:      port,
		db:        db,
		s3Service: s3Service,
		aiClient:  ai.NewClient(),
		recompute: debounce.New(recomputeWindow),
		scheduler: automation.NewScheduler(db),
	}
	NewServer.scheduler.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	server.RegisterOnShutdown(func() {
		NewServer.scheduler.Stop()
		NewServer.recompute.Stop()
	})

	return server
}
