// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/danielhkuo/ranked-pick/auth"
	"github.com/danielhkuo/ranked-pick/irv"
	"github.com/danielhkuo/ranked-pick/models"
)

// TabulationInputs is the consistent snapshot handed to the resolver:
// the candidate catalog in display order and one ranking per ballot.
// Assembled once at close time, after ballot acceptance has stopped.
type TabulationInputs struct {
	CandidateIDs []string
	Rankings     [][]string
	BallotIDs    []string // sorted, feeds the inputs hash
}

// RunTabulation collects the tabulation inputs for a session, invokes the
// resolver once, and returns the payload to persist in the result snapshot.
func RunTabulation(db *sql.DB, sessionID string) (models.SnapshotPayload, error) {
	inputs, err := CollectTabulationInputs(db, sessionID)
	if err != nil {
		return models.SnapshotPayload{}, fmt.Errorf("failed to collect tabulation inputs: %w", err)
	}

	result, err := irv.Resolve(inputs.CandidateIDs, inputs.Rankings)
	if err != nil {
		return models.SnapshotPayload{}, fmt.Errorf("tabulation failed: %w", err)
	}

	return models.SnapshotPayload{
		Result:      result,
		BallotCount: len(inputs.BallotIDs),
		InputsHash:  auth.HashInputs(inputs.BallotIDs),
	}, nil
}

// CollectTabulationInputs reads the candidate catalog and all ballots for a
// session. Rankings come back in ballot-ID order so repeated runs over the
// same data produce an identical audit trail.
func CollectTabulationInputs(db *sql.DB, sessionID string) (*TabulationInputs, error) {
	candidateIDs, err := getCandidateIDs(db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidates: %w", err)
	}

	ballotIDs, err := getBallotIDs(db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ballots: %w", err)
	}

	rankingsByBallot, err := getBallotRankings(db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rankings: %w", err)
	}

	rankings := make([][]string, len(ballotIDs))
	for i, id := range ballotIDs {
		rankings[i] = rankingsByBallot[id]
	}

	return &TabulationInputs{
		CandidateIDs: candidateIDs,
		Rankings:     rankings,
		BallotIDs:    ballotIDs,
	}, nil
}

// getCandidateIDs returns the catalog in display order.
func getCandidateIDs(db *sql.DB, sessionID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT id FROM candidate WHERE session_id = $1 ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// getBallotIDs returns all ballot IDs for a session, sorted.
func getBallotIDs(db *sql.DB, sessionID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT id FROM ballot WHERE session_id = $1 ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(ids)
	return ids, nil
}

// getBallotRankings retrieves all rankings grouped by ballot, best first.
func getBallotRankings(db *sql.DB, sessionID string) (map[string][]string, error) {
	rows, err := db.Query(`
		SELECT br.ballot_id, br.candidate_id
		FROM ballot_ranking br
		JOIN ballot b ON br.ballot_id = b.id
		WHERE b.session_id = $1
		ORDER BY br.ballot_id, br.position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rankings := make(map[string][]string)
	for rows.Next() {
		var ballotID, candidateID string
		if err := rows.Scan(&ballotID, &candidateID); err != nil {
			return nil, err
		}
		rankings[ballotID] = append(rankings[ballotID], candidateID)
	}

	return rankings, rows.Err()
}
