// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/danielhkuo/ranked-pick/auth"
	"github.com/danielhkuo/ranked-pick/irv"
	"github.com/danielhkuo/ranked-pick/models"
)

func TestGetSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewResultsHandler(db, cfg)

	// Create a session with candidates
	sessionID, _ := auth.GenerateID(16)
	shareSlug := auth.GenerateShareSlug(sessionID, cfg.SessionSlugSalt)
	_, err := db.Exec(`
		INSERT INTO session (id, title, description, creator_name, status, share_slug, created_at)
		VALUES ($1, 'Test Session', 'Test description', 'Alice', 'open', $2, $3)
	`, sessionID, shareSlug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	// Add candidates
	candidateID1, _ := auth.GenerateID(12)
	candidateID2, _ := auth.GenerateID(12)
	for i, c := range []struct {
		id    string
		label string
	}{
		{candidateID1, "Candidate A"},
		{candidateID2, "Candidate B"},
	} {
		_, err := db.Exec(`
			INSERT INTO candidate (id, session_id, label, position)
			VALUES ($1, $2, $3, $4)
		`, c.id, sessionID, c.label, i+1)
		if err != nil {
			t.Fatalf("Failed to create candidate: %v", err)
		}
	}

	tests := []struct {
		name           string
		shareSlug      string
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.SessionWithCandidates)
	}{
		{
			name:           "valid session retrieval",
			shareSlug:      shareSlug,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *models.SessionWithCandidates) {
				if resp.Session.ID != sessionID {
					t.Errorf("Expected session ID %s, got %s", sessionID, resp.Session.ID)
				}
				if resp.Session.Title != "Test Session" {
					t.Errorf("Expected title 'Test Session', got '%s'", resp.Session.Title)
				}
				if resp.Session.Description != "Test description" {
					t.Errorf("Expected description 'Test description', got '%s'", resp.Session.Description)
				}
				if resp.Session.CreatorName != "Alice" {
					t.Errorf("Expected creator 'Alice', got '%s'", resp.Session.CreatorName)
				}
				if resp.Session.Status != models.StatusOpen {
					t.Errorf("Expected status 'open', got '%s'", resp.Session.Status)
				}

				if len(resp.Candidates) != 2 {
					t.Fatalf("Expected 2 candidates, got %d", len(resp.Candidates))
				}

				// Candidates come back in catalog order
				if resp.Candidates[0].ID != candidateID1 || resp.Candidates[0].Label != "Candidate A" {
					t.Error("Candidate A mismatch")
				}
				if resp.Candidates[1].ID != candidateID2 || resp.Candidates[1].Label != "Candidate B" {
					t.Error("Candidate B mismatch")
				}
			},
		},
		{
			name:           "session not found",
			shareSlug:      "nonexistent",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/sessions/"+tt.shareSlug, nil)
			req.SetPathValue("slug", tt.shareSlug)
			w := httptest.NewRecorder()

			handler.GetSession(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus == http.StatusOK && tt.checkResponse != nil {
				var resp models.SessionWithCandidates
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestGetResults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewResultsHandler(db, cfg)

	// Create a closed session with results
	sessionID, _ := auth.GenerateID(16)
	shareSlug := auth.GenerateShareSlug(sessionID, cfg.SessionSlugSalt)
	snapshotID, _ := auth.GenerateID(16)

	_, err := db.Exec(`
		INSERT INTO session (id, title, creator_name, status, share_slug, final_snapshot_id, created_at)
		VALUES ($1, 'Closed Session', 'Alice', 'closed', $2, $3, $4)
	`, sessionID, shareSlug, snapshotID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	// Create candidates
	candidateID1, _ := auth.GenerateID(12)
	candidateID2, _ := auth.GenerateID(12)
	for i, c := range []struct {
		id    string
		label string
	}{
		{candidateID1, "Candidate A"},
		{candidateID2, "Candidate B"},
	} {
		_, err := db.Exec(`
			INSERT INTO candidate (id, session_id, label, position)
			VALUES ($1, $2, $3, $4)
		`, c.id, sessionID, c.label, i+1)
		if err != nil {
			t.Fatalf("Failed to create candidate: %v", err)
		}
	}

	// Create snapshot with a stored tabulation result
	payload := models.SnapshotPayload{
		Result: irv.Result{
			Winner: candidateID1,
			Rounds: []irv.Round{
				{Tallies: map[string]int{candidateID1: 2, candidateID2: 1}},
			},
		},
		BallotCount: 3,
		InputsHash:  "test-hash",
	}
	payloadJSON, _ := json.Marshal(payload)

	_, err = db.Exec(`
		INSERT INTO result_snapshot (id, session_id, method, computed_at, payload)
		VALUES ($1, $2, 'irv', $3, $4)
	`, snapshotID, sessionID, time.Now(), string(payloadJSON))
	if err != nil {
		t.Fatalf("Failed to create snapshot: %v", err)
	}

	type resultsResponse struct {
		Session     models.Session     `json:"session"`
		Candidates  []models.Candidate `json:"candidates"`
		Result      irv.Result         `json:"result"`
		BallotCount int                `json:"ballot_count"`
		InputsHash  string             `json:"inputs_hash"`
	}

	tests := []struct {
		name           string
		shareSlug      string
		expectedStatus int
		checkResponse  func(t *testing.T, resp *resultsResponse)
	}{
		{
			name:           "valid results retrieval",
			shareSlug:      shareSlug,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *resultsResponse) {
				if resp.Session.ID != sessionID {
					t.Errorf("Expected session ID %s, got %s", sessionID, resp.Session.ID)
				}
				if resp.Session.Status != models.StatusClosed {
					t.Errorf("Expected status 'closed', got '%s'", resp.Session.Status)
				}
				if resp.Result.Winner != candidateID1 {
					t.Errorf("Expected winner %s, got %s", candidateID1, resp.Result.Winner)
				}
				if resp.Result.NoVotes {
					t.Error("Expected no_votes to be false")
				}
				if len(resp.Result.Rounds) != 1 {
					t.Fatalf("Expected 1 round, got %d", len(resp.Result.Rounds))
				}
				if resp.Result.Rounds[0].Tallies[candidateID1] != 2 {
					t.Errorf("Expected tally 2 for winner, got %d", resp.Result.Rounds[0].Tallies[candidateID1])
				}
				if resp.BallotCount != 3 {
					t.Errorf("Expected ballot_count 3, got %d", resp.BallotCount)
				}
				if resp.InputsHash != "test-hash" {
					t.Errorf("Expected inputs_hash 'test-hash', got '%s'", resp.InputsHash)
				}
				if len(resp.Candidates) != 2 {
					t.Errorf("Expected 2 candidates, got %d", len(resp.Candidates))
				}
			},
		},
		{
			name:           "session not found",
			shareSlug:      "nonexistent",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/sessions/"+tt.shareSlug+"/results", nil)
			req.SetPathValue("slug", tt.shareSlug)
			w := httptest.NewRecorder()

			handler.GetResults(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus == http.StatusOK && tt.checkResponse != nil {
				var resp resultsResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestGetResultsForOpenSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewResultsHandler(db, cfg)

	// Create an open session
	sessionID, _ := auth.GenerateID(16)
	shareSlug := auth.GenerateShareSlug(sessionID, cfg.SessionSlugSalt)
	_, err := db.Exec(`
		INSERT INTO session (id, title, creator_name, status, share_slug, created_at)
		VALUES ($1, 'Open Session', 'Alice', 'open', $2, $3)
	`, sessionID, shareSlug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	req := httptest.NewRequest("GET", "/sessions/"+shareSlug+"/results", nil)
	req.SetPathValue("slug", shareSlug)
	w := httptest.NewRecorder()

	handler.GetResults(w, req)

	// Results should be sealed (403 Forbidden) for open sessions
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status %d for open session, got %d", http.StatusForbidden, w.Code)
	}
}

func TestGetResultsForDraftSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewResultsHandler(db, cfg)

	// Create a draft session
	sessionID, _ := auth.GenerateID(16)
	shareSlug := auth.GenerateShareSlug(sessionID, cfg.SessionSlugSalt)
	_, err := db.Exec(`
		INSERT INTO session (id, title, creator_name, status, share_slug, created_at)
		VALUES ($1, 'Draft Session', 'Alice', 'draft', $2, $3)
	`, sessionID, shareSlug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	req := httptest.NewRequest("GET", "/sessions/"+shareSlug+"/results", nil)
	req.SetPathValue("slug", shareSlug)
	w := httptest.NewRecorder()

	handler.GetResults(w, req)

	// Results should be sealed (403 Forbidden) for draft sessions
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status %d for draft session, got %d", http.StatusForbidden, w.Code)
	}
}

func TestGetBallotCount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewResultsHandler(db, cfg)

	// Create a session with ballots
	sessionID, _ := auth.GenerateID(16)
	shareSlug := auth.GenerateShareSlug(sessionID, cfg.SessionSlugSalt)
	_, err := db.Exec(`
		INSERT INTO session (id, title, creator_name, status, share_slug, created_at)
		VALUES ($1, 'Test Session', 'Alice', 'open', $2, $3)
	`, sessionID, shareSlug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	// Add 3 ballots
	for i := 0; i < 3; i++ {
		ballotID, _ := auth.GenerateID(16)
		voterToken, _ := auth.GenerateVoterToken()
		_, err := db.Exec(`
			INSERT INTO ballot (id, session_id, voter_token, submitted_at)
			VALUES ($1, $2, $3, $4)
		`, ballotID, sessionID, voterToken, time.Now())
		if err != nil {
			t.Fatalf("Failed to create ballot %d: %v", i, err)
		}
	}

	tests := []struct {
		name           string
		shareSlug      string
		expectedStatus int
		expectedCount  int
	}{
		{
			name:           "valid ballot count",
			shareSlug:      shareSlug,
			expectedStatus: http.StatusOK,
			expectedCount:  3,
		},
		{
			name:           "session not found",
			shareSlug:      "nonexistent",
			expectedStatus: http.StatusNotFound,
			expectedCount:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/sessions/"+tt.shareSlug+"/ballot-count", nil)
			req.SetPathValue("slug", tt.shareSlug)
			w := httptest.NewRecorder()

			handler.GetBallotCount(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus == http.StatusOK {
				var resp map[string]int
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				count, ok := resp["ballot_count"]
				if !ok {
					t.Error("Response missing 'ballot_count' field")
				}
				if count != tt.expectedCount {
					t.Errorf("Expected ballot count %d, got %d", tt.expectedCount, count)
				}
			}
		})
	}
}

func TestGetBallotCountForSessionWithNoBallots(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewResultsHandler(db, cfg)

	// Create a session without ballots
	sessionID, _ := auth.GenerateID(16)
	shareSlug := auth.GenerateShareSlug(sessionID, cfg.SessionSlugSalt)
	_, err := db.Exec(`
		INSERT INTO session (id, title, creator_name, status, share_slug, created_at)
		VALUES ($1, 'Empty Session', 'Alice', 'open', $2, $3)
	`, sessionID, shareSlug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	req := httptest.NewRequest("GET", "/sessions/"+shareSlug+"/ballot-count", nil)
	req.SetPathValue("slug", shareSlug)
	w := httptest.NewRecorder()

	handler.GetBallotCount(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]int
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	count := resp["ballot_count"]
	if count != 0 {
		t.Errorf("Expected ballot count 0, got %d", count)
	}
}

func TestGetSessionWithoutCandidates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewResultsHandler(db, cfg)

	// Create a session without candidates
	sessionID, _ := auth.GenerateID(16)
	shareSlug := auth.GenerateShareSlug(sessionID, cfg.SessionSlugSalt)
	_, err := db.Exec(`
    INSERT INTO session (id, title, description, creator_name, status, share_slug, created_at)
    VALUES ($1, 'Empty Session', '', 'Alice', 'draft', $2, $3)
	`, sessionID, shareSlug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	req := httptest.NewRequest("GET", "/sessions/"+shareSlug, nil)
	req.SetPathValue("slug", shareSlug)
	w := httptest.NewRecorder()

	handler.GetSession(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp models.SessionWithCandidates
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Candidates) != 0 {
		t.Errorf("Expected 0 candidates, got %d", len(resp.Candidates))
	}
}

func TestGetPreview(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewResultsHandler(db, cfg)

	// Create an open session with candidates and a ballot
	sessionID, _ := auth.GenerateID(16)
	shareSlug := auth.GenerateShareSlug(sessionID, cfg.SessionSlugSalt)
	_, err := db.Exec(`
		INSERT INTO session (id, title, creator_name, status, share_slug, created_at)
		VALUES ($1, 'Preview Session', 'Alice', 'open', $2, $3)
	`, sessionID, shareSlug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	for i := 1; i <= 2; i++ {
		candidateID, _ := auth.GenerateID(12)
		_, err := db.Exec(`
			INSERT INTO candidate (id, session_id, label, position)
			VALUES ($1, $2, 'Candidate', $3)
		`, candidateID, sessionID, i)
		if err != nil {
			t.Fatalf("Failed to create candidate: %v", err)
		}
	}

	ballotID, _ := auth.GenerateID(16)
	voterToken, _ := auth.GenerateVoterToken()
	_, err = db.Exec(`
		INSERT INTO ballot (id, session_id, voter_token, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, ballotID, sessionID, voterToken, time.Now())
	if err != nil {
		t.Fatalf("Failed to create ballot: %v", err)
	}

	req := httptest.NewRequest("GET", "/sessions/"+shareSlug+"/preview", nil)
	req.SetPathValue("slug", shareSlug)
	w := httptest.NewRecorder()

	handler.GetPreview(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d. Body: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var preview models.SessionPreviewResponse
	if err := json.NewDecoder(w.Body).Decode(&preview); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if preview.Title != "Preview Session" {
		t.Errorf("Expected title 'Preview Session', got '%s'", preview.Title)
	}
	if preview.Status != models.StatusOpen {
		t.Errorf("Expected status 'open', got '%s'", preview.Status)
	}
	if preview.CandidateCount != 2 {
		t.Errorf("Expected 2 candidates, got %d", preview.CandidateCount)
	}
	if preview.BallotCount != 1 {
		t.Errorf("Expected 1 ballot, got %d", preview.BallotCount)
	}
	if preview.CreatedAgo == "" {
		t.Error("Expected non-empty created_ago")
	}
	if preview.ClosedAgo != nil {
		t.Error("Expected nil closed_ago for open session")
	}
}
