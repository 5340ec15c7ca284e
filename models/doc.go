// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateSessionRequest: title, description, creator_name
  - AddCandidateRequest: label
  - ClaimUsernameRequest: username
  - SubmitBallotRequest: ranking ([]string, best first)
  - RegisterDeviceRequest: platform

# Response Types

Types for JSON responses:

  - CreateSessionResponse: session_id, admin_key
  - AddCandidateResponse: candidate_id
  - PublishSessionResponse: share_slug, share_url
  - ClaimUsernameResponse: voter_token
  - SubmitBallotResponse: ballot_id, message
  - MyBallotResponse: ranking, submitted_at
  - CloseSessionResponse: closed_at, snapshot
  - SessionPreviewResponse: compact data for message bubbles
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Session: session metadata and lifecycle state
  - Candidate: one selectable option, with display position
  - Ballot: voter submission metadata (the ranking lives in ballot_ranking)
  - ResultSnapshot: immutable tabulation record wrapping irv.Result
  - SnapshotPayload: JSON body persisted in result_snapshot

# Constants

Status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

Voting method:

	MethodIRV = "irv"

Catalog bounds:

	MinCandidates = 2
	MaxCandidates = 10

Device roles:

	RoleVoter = "voter"
	RoleAdmin = "admin"

Platforms:

	PlatformIOS     = "ios"
	PlatformMacOS   = "macos"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
*/
package models
