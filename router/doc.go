// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Ranked Pick API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Session management (admin, requires X-Admin-Key):

	POST /sessions                 - Create session
	GET  /sessions/{id}/admin      - Get session details
	POST /sessions/{id}/candidates - Add candidate
	POST /sessions/{id}/publish    - Open for voting
	POST /sessions/{id}/close      - Tabulate and seal results

Voting (public, uses share slug):

	POST /sessions/{slug}/claim-username - Claim voter identity
	POST /sessions/{slug}/ballots        - Submit/replace ranked ballot
	GET  /sessions/{slug}/my-ballot      - Current ranking for the caller

Results (public):

	GET /sessions/{slug}              - Session info and candidates
	GET /sessions/{slug}/results      - Final results (closed only)
	GET /sessions/{slug}/ballot-count - Vote count
	GET /sessions/{slug}/preview      - Compact preview data

Device management:

	POST /devices/register    - Register device
	GET  /devices/me          - Get device info
	GET  /devices/my-sessions - List device's sessions

# Handler Initialization

The router creates handler instances with dependency injection:

	sessionHandler := handlers.NewSessionHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	deviceHandler := handlers.NewDeviceHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
