// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/ranked-pick/auth"
	"github.com/danielhkuo/ranked-pick/cliparse"
	"github.com/danielhkuo/ranked-pick/middleware"
	"github.com/danielhkuo/ranked-pick/models"
)

type SessionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSessionHandler(db *sql.DB, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{db: db, cfg: cfg}
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.CreatorName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "creator_name is required")
		return
	}

	// Generate session ID
	sessionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate session ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	// Generate admin key
	adminKey := auth.GenerateAdminKey(sessionID, h.cfg.AdminKeySalt)

	// Insert session into database
	_, err = h.db.Exec(`
		INSERT INTO session (id, title, description, creator_name, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sessionID, req.Title, req.Description, req.CreatorName, models.MethodIRV, models.StatusDraft, time.Now())

	if err != nil {
		slog.Error("failed to insert session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	// Link device to session as admin (if X-Device-UUID header present)
	deviceID, err := GetOrCreateDevice(h.db, r)
	if err != nil {
		slog.Warn("failed to get/create device", "error", err)
	} else if deviceID != "" {
		if err := LinkDeviceToSession(h.db, deviceID, sessionID, models.RoleAdmin, nil); err != nil {
			slog.Warn("failed to link device to session", "error", err)
		}
	}

	slog.Info("session created", "session_id", sessionID, "creator", req.CreatorName)

	// Return response
	middleware.JSONResponse(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID: sessionID,
		AdminKey:  adminKey,
	})
}

// AddCandidate handles POST /sessions/:id/candidates
func (h *SessionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(sessionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	// Parse request
	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Label == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "label is required")
		return
	}

	// Check session exists and is in draft status
	var status string
	err := h.db.QueryRow("SELECT status FROM session WHERE id = $1", sessionID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add candidates to non-draft session")
		return
	}

	// Enforce the catalog upper bound before inserting
	var candidateCount int
	err = h.db.QueryRow("SELECT COUNT(*) FROM candidate WHERE session_id = $1", sessionID).Scan(&candidateCount)
	if err != nil {
		slog.Error("failed to count candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if candidateCount >= models.MaxCandidates {
		middleware.ErrorResponse(w, http.StatusConflict, "Session already has the maximum of 10 candidates")
		return
	}

	// Generate candidate ID
	candidateID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate candidate ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	// Insert candidate; position records display order (1-indexed)
	_, err = h.db.Exec(`
		INSERT INTO candidate (id, session_id, label, position)
		VALUES ($1, $2, $3, $4)
	`, candidateID, sessionID, req.Label, candidateCount+1)

	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	slog.Info("candidate added", "session_id", sessionID, "candidate_id", candidateID)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{
		CandidateID: candidateID,
	})
}

// PublishSession handles POST /sessions/:id/publish
func (h *SessionHandler) PublishSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(sessionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	// Check session exists and is in draft status
	var status string
	var candidateCount int
	err := h.db.QueryRow(`
		SELECT s.status, COUNT(c.id)
		FROM session s
		LEFT JOIN candidate c ON s.id = c.session_id
		WHERE s.id = $1
		GROUP BY s.status
	`, sessionID).Scan(&status, &candidateCount)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in draft status")
		return
	}

	if candidateCount < models.MinCandidates {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Session must have at least 2 candidates")
		return
	}
	if candidateCount > models.MaxCandidates {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Session must have at most 10 candidates")
		return
	}

	// Generate share slug
	shareSlug := auth.GenerateShareSlug(sessionID, h.cfg.SessionSlugSalt)

	// Update session to open status
	_, err = h.db.Exec(`
		UPDATE session
		SET status = $1, share_slug = $2
		WHERE id = $3
	`, models.StatusOpen, shareSlug, sessionID)

	if err != nil {
		slog.Error("failed to publish session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish session")
		return
	}

	slog.Info("session published", "session_id", sessionID, "share_slug", shareSlug)

	// Build share URL (could be configurable)
	baseURL := "https://ranked-pick.com" // TODO: Make this configurable
	shareURL := baseURL + "/sessions/" + shareSlug

	middleware.JSONResponse(w, http.StatusOK, models.PublishSessionResponse{
		ShareSlug: shareSlug,
		ShareURL:  shareURL,
	})
}

// GetSessionAdmin handles GET /sessions/:id/admin
// Returns session details for admin access using session ID and admin key
func (h *SessionHandler) GetSessionAdmin(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(sessionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	// Get session by ID
	var session models.Session
	err := h.db.QueryRow(`
		SELECT id, title, description, creator_name, method, status,
		       share_slug, closes_at, closed_at, final_snapshot_id, created_at
		FROM session
		WHERE id = $1
	`, sessionID).Scan(
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

// CloseSession handles POST /sessions/:id/close
// Freezes ballot acceptance, runs instant-runoff tabulation exactly once,
// and persists the result as an immutable snapshot.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(sessionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	// Check session exists and is open
	var status string
	err := h.db.QueryRow("SELECT status FROM session WHERE id = $1", sessionID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not open")
		return
	}

	// Tabulate before the transaction: the resolver is pure and only the
	// writes below need atomicity.
	payload, err := RunTabulation(h.db, sessionID)
	if err != nil {
		slog.Error("tabulation failed", "error", err, "session_id", sessionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal snapshot payload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	snapshotID := uuid.NewString()
	closedAt := time.Now()

	// Begin transaction
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Update session to closed
	_, err = tx.Exec(`
		UPDATE session
		SET status = $1, closed_at = $2, final_snapshot_id = $3
		WHERE id = $4
	`, models.StatusClosed, closedAt, snapshotID, sessionID)

	if err != nil {
		slog.Error("failed to close session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close session")
		return
	}

	// Insert result snapshot
	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, session_id, method, computed_at, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, snapshotID, sessionID, models.MethodIRV, closedAt, string(payloadJSON))

	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close session")
		return
	}

	slog.Info("session closed", "session_id", sessionID, "snapshot_id", snapshotID,
		"winner", payload.Result.Winner, "no_votes", payload.Result.NoVotes)

	middleware.JSONResponse(w, http.StatusOK, models.CloseSessionResponse{
		ClosedAt: closedAt,
		Snapshot: models.ResultSnapshot{
			ID:          snapshotID,
			SessionID:   sessionID,
			Method:      models.MethodIRV,
			ComputedAt:  closedAt,
			Result:      payload.Result,
			BallotCount: payload.BallotCount,
			InputsHash:  payload.InputsHash,
		},
	})
}

// getSessionCandidates returns a session's catalog in display order.
func getSessionCandidates(db *sql.DB, sessionID string) ([]models.Candidate, error) {
	rows, err := db.Query(`
		SELECT id, session_id, label, position
		FROM candidate
		WHERE session_id = $1
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Label, &c.Position); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}
