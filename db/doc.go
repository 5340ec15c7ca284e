// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL runs unchanged on both PostgreSQL and SQLite.

# Tables

The schema includes:

  - session: Session metadata and lifecycle state
  - candidate: Ordered candidate catalog per session
  - username_claim: Maps usernames to voter tokens
  - ballot: One ballot per voter per session
  - ballot_ranking: Ordered candidate preferences per ballot
  - result_snapshot: Immutable IRV results
  - device: Registered devices
  - device_session: Links devices to sessions

# Relationships

	session 1──* candidate
	session 1──* username_claim
	session 1──* ballot
	ballot 1──* ballot_ranking
	session 1──* result_snapshot
	device *──* session (via device_session)

All foreign keys use ON DELETE CASCADE.

# Indexes

Performance indexes on:

  - session.share_slug (unique)
  - session.status
  - candidate.session_id
  - ballot.session_id
  - ballot.(session_id, voter_token)
  - ballot_ranking.candidate_id
  - device.device_uuid (unique)
*/
package db
