// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/ranked-pick/irv"
)

// Session status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Voting method constants
const (
	MethodIRV = "irv"
)

// Candidate catalog bounds enforced at publish time
const (
	MinCandidates = 2
	MaxCandidates = 10
)

// Device roles
const (
	RoleVoter = "voter"
	RoleAdmin = "admin"
)

// Device platforms
const (
	PlatformIOS     = "ios"
	PlatformMacOS   = "macos"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// Request types

type CreateSessionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorName string `json:"creator_name"`
}

type AddCandidateRequest struct {
	Label string `json:"label"`
}

type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

// Full ranking of candidate IDs, best-preferred first
type SubmitBallotRequest struct {
	Ranking []string `json:"ranking"`
}

type RegisterDeviceRequest struct {
	Platform string `json:"platform"`
}

// Response types

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	AdminKey  string `json:"admin_key"`
}

type AddCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type PublishSessionResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type ClaimUsernameResponse struct {
	VoterToken string `json:"voter_token"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type MyBallotResponse struct {
	Ranking     []string  `json:"ranking"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type CloseSessionResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type RegisterDeviceResponse struct {
	DeviceID string `json:"device_id"`
	IsNew    bool   `json:"is_new"`
}

type GetMySessionsResponse struct {
	Sessions []DeviceSessionSummary `json:"sessions"`
}

type SessionPreviewResponse struct {
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	CandidateCount int     `json:"candidate_count"`
	BallotCount    int     `json:"ballot_count"`
	CreatedAgo     string  `json:"created_ago"`
	ClosedAgo      *string `json:"closed_ago,omitempty"`
}

// Domain types

type Session struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CreatorName     string     `json:"creator_name"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	ShareSlug       *string    `json:"share_slug,omitempty"`
	ClosesAt        *time.Time `json:"closes_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Candidate struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Label     string `json:"label"`
	Position  int    `json:"position"` // display order, 1-indexed
}

type SessionWithCandidates struct {
	Session    Session     `json:"session"`
	Candidates []Candidate `json:"candidates"`
}

type Ballot struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	VoterToken  string    `json:"-"` // Never expose in JSON
	SubmittedAt time.Time `json:"submitted_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
	UserAgent   *string   `json:"-"` // Never expose in JSON
}

// IRV Result Types

type ResultSnapshot struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	Method      string     `json:"method"`
	ComputedAt  time.Time  `json:"computed_at"`
	Result      irv.Result `json:"result"`
	BallotCount int        `json:"ballot_count"`
	InputsHash  string     `json:"inputs_hash"` // Hash of all ballot IDs for verification
}

// SnapshotPayload is the JSON body stored in the result_snapshot table.
type SnapshotPayload struct {
	Result      irv.Result `json:"result"`
	BallotCount int        `json:"ballot_count"`
	InputsHash  string     `json:"inputs_hash"`
}

// Device types

type DeviceInfo struct {
	ID         string    `json:"id"`
	Platform   string    `json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

type DeviceSessionSummary struct {
	SessionID   string    `json:"session_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	ShareSlug   *string   `json:"share_slug,omitempty"`
	Role        string    `json:"role"`
	Username    *string   `json:"username,omitempty"`
	LinkedAt    time.Time `json:"linked_at"`
	BallotCount int       `json:"ballot_count"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
