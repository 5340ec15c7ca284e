// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Ranked Pick API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - SessionHandler: Session lifecycle (create, publish, close)
  - VotingHandler: Username claims and ranked-ballot submission
  - ResultsHandler: Session info and results retrieval
  - DeviceHandler: Device registration and session history

Handlers are created via constructor functions that accept *sql.DB and Config:

	sessionHandler := handlers.NewSessionHandler(db, cfg)

# Session Lifecycle

Sessions progress through three states: draft → open → closed

	POST /sessions                 → CreateSession (returns admin_key)
	POST /sessions/{id}/candidates → AddCandidate (draft only, 2-10 total)
	POST /sessions/{id}/publish    → PublishSession (generates share_slug)
	POST /sessions/{id}/close      → CloseSession (runs IRV tabulation once)

Admin operations require the X-Admin-Key header.

# Voting Flow

Voters interact via the share slug:

	POST /sessions/{slug}/claim-username → ClaimUsername (returns voter_token)
	POST /sessions/{slug}/ballots        → SubmitBallot (create or replace)
	GET  /sessions/{slug}/my-ballot      → GetMyBallot

Voter operations require the X-Voter-Token header. A ballot is a full
ranking of the candidate catalog, best first; resubmitting replaces the
voter's previous ballot.

# Tabulation

Closing a session takes a consistent snapshot of catalog and ballots
(tabulate.go) and hands it to the pure resolver:

	payload, err := handlers.RunTabulation(db, sessionID)

The resolver lives in the irv package and performs no database access; the
snapshot it produces (winner or no-votes sentinel, per-round trail, ballot
count, inputs hash) is persisted immutably in result_snapshot.

# Device Tracking

Optional device tracking for native apps:

	POST /devices/register    → Register
	GET  /devices/me          → GetMe
	GET  /devices/my-sessions → GetMySessions

Device operations require the X-Device-UUID header.
*/
package handlers
