// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Ranked Pick API server.

Ranked Pick is a group decision service: participants rank the full candidate
list by drag-and-drop, and the winner is computed with instant-runoff
(ranked-choice) tabulation when the host closes the session.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... go run main.go

Or with flags:

	go run main.go -p 3318 -d "postgres://..."

A .env file in the working directory is loaded automatically.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or SQLite file path
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - SESSION_SLUG_SALT (--slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"

# Architecture

The server uses a handler-based architecture with dependency injection:

  - irv: instant-runoff tabulation (pure, no database access)
  - handlers: HTTP request handlers (sessions, voting, results, devices)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Token generation and validation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
