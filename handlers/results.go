// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/ranked-pick/cliparse"
	"github.com/danielhkuo/ranked-pick/middleware"
	"github.com/danielhkuo/ranked-pick/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetSession handles GET /sessions/:slug
// Returns session details and candidates, but NOT results (results are sealed until closed)
func (h *ResultsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get session by share slug
	var session models.Session
	err := h.db.QueryRow(`
		SELECT id, title, description, creator_name, method, status,
		       share_slug, closes_at, closed_at, final_snapshot_id, created_at
		FROM session
		WHERE share_slug = $1
	`, shareSlug).Scan(
		&session.ID, &session.Title, &session.Description, &session.CreatorName,
		&session.Method, &session.Status, &session.ShareSlug, &session.ClosesAt,
		&session.ClosedAt, &session.FinalSnapshotID, &session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	candidates, err := getSessionCandidates(h.db, session.ID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	response := models.SessionWithCandidates{
		Session:    session,
		Candidates: candidates,
	}

	middleware.JSONResponse(w, http.StatusOK, response)
}

// GetResults handles GET /sessions/:slug/results
// Returns 403 if session is open (results are sealed)
// Returns the final snapshot if session is closed
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get session status and snapshot ID
	var status string
	var snapshotID sql.NullString
	err := h.db.QueryRow(`
		SELECT status, final_snapshot_id
		FROM session
		WHERE share_slug = $1
	`, shareSlug).Scan(&status, &snapshotID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// CRITICAL: Results are sealed while session is open
	if status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until session is closed")
		return
	}

	// Session is closed, return final snapshot
	if !snapshotID.Valid {
		slog.Error("closed session has no snapshot", "slug", shareSlug)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	// Get snapshot
	var snapshot models.ResultSnapshot
	var payloadJSON []byte
	err = h.db.QueryRow(`
		SELECT id, session_id, method, computed_at, payload
		FROM result_snapshot
		WHERE id = $1
	`, snapshotID.String).Scan(
		&snapshot.ID, &snapshot.SessionID, &snapshot.Method,
		&snapshot.ComputedAt, &payloadJSON,
	)

	if err != nil {
		slog.Error("failed to query snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Parse JSON payload
	var payload models.SnapshotPayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		slog.Error("failed to parse snapshot payload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to parse results")
		return
	}

	snapshot.Result = payload.Result
	snapshot.BallotCount = payload.BallotCount
	snapshot.InputsHash = payload.InputsHash

	// Get session information for the response
	var session models.Session
	err = h.db.QueryRow(`
		SELECT id, title, description, creator_name, method, status,
		       share_slug, closes_at, closed_at, final_snapshot_id, created_at
		FROM session
		WHERE share_slug = $1
	`, shareSlug).Scan(
		&session.ID, &session.Title, &session.Description, &session.CreatorName,
		&session.Method, &session.Status, &session.ShareSlug, &session.ClosesAt,
		&session.ClosedAt, &session.FinalSnapshotID, &session.CreatedAt,
	)

	if err != nil {
		slog.Error("failed to query session for results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Candidate labels so the frontend can render winner and rounds
	candidates, err := getSessionCandidates(h.db, session.ID)
	if err != nil {
		slog.Error("failed to query candidates for results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Return results in the format expected by frontend
	response := map[string]interface{}{
		"session":      session,
		"candidates":   candidates,
		"result":       snapshot.Result,
		"ballot_count": snapshot.BallotCount,
		"inputs_hash":  snapshot.InputsHash,
	}

	middleware.JSONResponse(w, http.StatusOK, response)
}

// GetBallotCount handles GET /sessions/:slug/ballot-count (optional convenience endpoint)
// Returns the number of ballots submitted (visible even while open)
func (h *ResultsHandler) GetBallotCount(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get session ID
	var sessionID string
	err := h.db.QueryRow(`
		SELECT id FROM session WHERE share_slug = $1
	`, shareSlug).Scan(&sessionID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Count ballots
	var count int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM ballot WHERE session_id = $1
	`, sessionID).Scan(&count)

	if err != nil {
		slog.Error("failed to count ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]int{
		"ballot_count": count,
	})
}

// GetPreview handles GET /sessions/:slug/preview
// Returns compact session data for iMessage bubble display
func (h *ResultsHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get session info
	var session models.Session
	err := h.db.QueryRow(`
		SELECT id, title, status, closed_at, created_at
		FROM session WHERE share_slug = $1
	`, shareSlug).Scan(&session.ID, &session.Title, &session.Status, &session.ClosedAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Get candidate count
	var candidateCount int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM candidate WHERE session_id = $1
	`, session.ID).Scan(&candidateCount)
	if err != nil {
		slog.Error("failed to count candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Get ballot count
	var ballotCount int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM ballot WHERE session_id = $1
	`, session.ID).Scan(&ballotCount)
	if err != nil {
		slog.Error("failed to count ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	preview := models.SessionPreviewResponse{
		Title:          session.Title,
		Status:         session.Status,
		CandidateCount: candidateCount,
		BallotCount:    ballotCount,
		CreatedAgo:     humanize.Time(session.CreatedAt),
	}
	if session.ClosedAt != nil {
		closedAgo := humanize.Time(*session.ClosedAt)
		preview.ClosedAgo = &closedAgo
	}

	middleware.JSONResponse(w, http.StatusOK, preview)
}
