// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/ranked-pick/cliparse"
	"github.com/danielhkuo/ranked-pick/handlers"
	"github.com/danielhkuo/ranked-pick/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	deviceHandler := handlers.NewDeviceHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session management (admin operations)
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.CreateSession))
	mux.HandleFunc("GET /sessions/{id}/admin", middleware.WithLogging(sessionHandler.GetSessionAdmin))
	mux.HandleFunc("POST /sessions/{id}/candidates", middleware.WithLogging(sessionHandler.AddCandidate))
	mux.HandleFunc("POST /sessions/{id}/publish", middleware.WithLogging(sessionHandler.PublishSession))
	mux.HandleFunc("POST /sessions/{id}/close", middleware.WithLogging(sessionHandler.CloseSession))

	// Voting operations (public)
	mux.HandleFunc("POST /sessions/{slug}/claim-username", middleware.WithLogging(votingHandler.ClaimUsername))
	mux.HandleFunc("POST /sessions/{slug}/ballots", middleware.WithLogging(votingHandler.SubmitBallot))
	mux.HandleFunc("GET /sessions/{slug}/my-ballot", middleware.WithLogging(votingHandler.GetMyBallot))

	// Results retrieval (public, with sealed results)
	mux.HandleFunc("GET /sessions/{slug}", middleware.WithLogging(resultsHandler.GetSession))
	mux.HandleFunc("GET /sessions/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /sessions/{slug}/ballot-count", middleware.WithLogging(resultsHandler.GetBallotCount))
	mux.HandleFunc("GET /sessions/{slug}/preview", middleware.WithLogging(resultsHandler.GetPreview))

	// Device management
	mux.HandleFunc("POST /devices/register", middleware.WithLogging(deviceHandler.Register))
	mux.HandleFunc("GET /devices/me", middleware.WithLogging(deviceHandler.GetMe))
	mux.HandleFunc("GET /devices/my-sessions", middleware.WithLogging(deviceHandler.GetMySessions))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ranked-pick API v1"))
	})

	return mux
}
