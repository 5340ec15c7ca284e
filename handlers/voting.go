// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/ranked-pick/auth"
	"github.com/danielhkuo/ranked-pick/cliparse"
	"github.com/danielhkuo/ranked-pick/middleware"
	"github.com/danielhkuo/ranked-pick/models"
)

type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg}
}

// ClaimUsername handles POST /sessions/:slug/claim-username
func (h *VotingHandler) ClaimUsername(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Parse request
	var req models.ClaimUsernameRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	// Validate username (basic validation)
	if len(req.Username) < 2 || len(req.Username) > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}

	// Find session by share slug
	var sessionID string
	var status string
	err := h.db.QueryRow(`
		SELECT id, status FROM session WHERE share_slug = $1
	`, shareSlug).Scan(&sessionID, &status)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Can only claim username for open sessions
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not open for voting")
		return
	}

	// Generate voter token
	voterToken, err := auth.GenerateVoterToken()
	if err != nil {
		slog.Error("failed to generate voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to claim username")
		return
	}

	// Insert username claim (UNIQUE constraint will prevent duplicates)
	_, err = h.db.Exec(`
		INSERT INTO username_claim (session_id, username, voter_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, sessionID, req.Username, voterToken, time.Now())

	if err != nil {
		// Check if it's a uniqueness violation (sqlite and pq word it differently)
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key value") {
			middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
			return
		}
		slog.Error("failed to insert username claim", "error", err, "session_id", sessionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to claim username")
		return
	}

	// Link device to session as voter (if X-Device-UUID header present)
	deviceID, err := GetOrCreateDevice(h.db, r)
	if err != nil {
		slog.Warn("failed to get/create device", "error", err)
		// Non-fatal: username was claimed, just no device linking
	} else if deviceID != "" {
		if err := LinkDeviceToSession(h.db, deviceID, sessionID, models.RoleVoter, &voterToken); err != nil {
			slog.Warn("failed to link device to session", "error", err)
		}
	}

	slog.Info("username claimed", "session_id", sessionID, "username", req.Username)

	middleware.JSONResponse(w, http.StatusCreated, models.ClaimUsernameResponse{
		VoterToken: voterToken,
	})
}

// SubmitBallot handles POST /sessions/:slug/ballots
// The ranking must be a full permutation of the candidate catalog; a
// resubmission replaces the voter's previous ballot (last-write-wins).
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get voter token from header
	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return
	}

	// Parse request
	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Ranking) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ranking cannot be empty")
		return
	}

	// Find session by share slug
	var sessionID string
	var status string
	err := h.db.QueryRow(`
		SELECT id, status FROM session WHERE share_slug = $1
	`, shareSlug).Scan(&sessionID, &status)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Can only vote on open sessions
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not open for voting")
		return
	}

	// Verify voter token is valid for this session
	var exists bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM username_claim
			WHERE session_id = $1 AND voter_token = $2
		)
	`, sessionID, voterToken).Scan(&exists)

	if err != nil {
		slog.Error("failed to verify voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !exists {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token for this session")
		return
	}

	// Get all valid candidate IDs for this session
	rows, err := h.db.Query(`
		SELECT id FROM candidate WHERE session_id = $1
	`, sessionID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	validCandidates := make(map[string]bool)
	for rows.Next() {
		var candidateID string
		if err := rows.Scan(&candidateID); err != nil {
			slog.Error("failed to scan candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		validCandidates[candidateID] = true
	}

	// The ranking must cover every candidate exactly once. The resolver
	// itself tolerates partial or malformed ballots; the API does not.
	seen := make(map[string]bool, len(req.Ranking))
	for _, candidateID := range req.Ranking {
		if !validCandidates[candidateID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid candidate_id: "+candidateID)
			return
		}
		if seen[candidateID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Duplicate candidate_id: "+candidateID)
			return
		}
		seen[candidateID] = true
	}
	if len(req.Ranking) != len(validCandidates) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ranking must include every candidate")
		return
	}

	// Get IP hash for tracking
	clientIP := middleware.GetClientIP(r)
	ipHash := auth.HashIP(clientIP, h.cfg.AdminKeySalt) // Reuse admin salt for IP hashing
	userAgent := r.UserAgent()

	// Begin transaction for UPSERT
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Check if ballot already exists
	var existingBallotID string
	err = tx.QueryRow(`
		SELECT id FROM ballot WHERE session_id = $1 AND voter_token = $2
	`, sessionID, voterToken).Scan(&existingBallotID)

	isUpdate := err != sql.ErrNoRows
	var ballotID string

	if isUpdate {
		// Update existing ballot
		ballotID = existingBallotID
		_, err = tx.Exec(`
			UPDATE ballot
			SET submitted_at = $1, ip_hash = $2, user_agent = $3
			WHERE id = $4
		`, time.Now(), ipHash, userAgent, ballotID)

		if err != nil {
			slog.Error("failed to update ballot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update ballot")
			return
		}

		// Delete old ranking
		_, err = tx.Exec(`DELETE FROM ballot_ranking WHERE ballot_id = $1`, ballotID)
		if err != nil {
			slog.Error("failed to delete old ranking", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update ballot")
			return
		}
	} else {
		// Create new ballot
		ballotID = uuid.NewString()
		_, err = tx.Exec(`
			INSERT INTO ballot (id, session_id, voter_token, submitted_at, ip_hash, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ballotID, sessionID, voterToken, time.Now(), ipHash, userAgent)

		if err != nil {
			slog.Error("failed to insert ballot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
			return
		}
	}

	// Insert ranking rows, position 1 = best preferred
	for i, candidateID := range req.Ranking {
		_, err = tx.Exec(`
			INSERT INTO ballot_ranking (ballot_id, position, candidate_id)
			VALUES ($1, $2, $3)
		`, ballotID, i+1, candidateID)

		if err != nil {
			slog.Error("failed to insert ranking", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save ranking")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	message := "Ballot submitted successfully"
	if isUpdate {
		message = "Ballot updated successfully"
	}

	slog.Info("ballot submitted", "session_id", sessionID, "ballot_id", ballotID, "is_update", isUpdate)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		BallotID: ballotID,
		Message:  message,
	})
}

// GetMyBallot handles GET /sessions/:slug/my-ballot
// Returns the caller's current ranking so the client can restore its UI.
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return
	}

	// Find session by share slug
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

	// Find the voter's ballot
	var ballotID string
	var submittedAt time.Time
	err = h.db.QueryRow(`
		SELECT id, submitted_at FROM ballot
		WHERE session_id = $1 AND voter_token = $2
	`, sessionID, voterToken).Scan(&ballotID, &submittedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No ballot submitted")
		return
	}
	if err != nil {
		slog.Error("failed to query ballot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT candidate_id FROM ballot_ranking
		WHERE ballot_id = $1
		ORDER BY position
	`, ballotID)
	if err != nil {
		slog.Error("failed to query ranking", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	ranking := []string{}
	for rows.Next() {
		var candidateID string
		if err := rows.Scan(&candidateID); err != nil {
			slog.Error("failed to scan ranking", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		ranking = append(ranking, candidateID)
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyBallotResponse{
		Ranking:     ranking,
		SubmittedAt: submittedAt,
	})
}
