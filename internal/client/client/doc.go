// Package client talks to the user-management REST backend.
//
// # Overview
//
// The package provides:
//  1. The Client interface, one method per backend endpoint.
//  2. HTTPClient, its net/http implementation. It attaches the bearer token
//     from a TokenStore, tags every request with an X-Request-ID, refreshes an
//     expired access token once and retries, and maps HTTP statuses to the
//     sentinel errors below.
//  3. Local persistence bootstrap for the CLI (InitDatabase, RunMigrations):
//     an SQLite file with embedded goose migrations.
//
// # Error Handling
//
// Transport failures are returned as samber/oops errors carrying a code and
// the request method, path and status. They wrap one of ErrUnavailable,
// ErrUnauthorized, ErrForbidden, ErrNotFound, ErrServer or a
// *FieldValidationError, so callers match with errors.Is and errors.As.
//
// Nothing is retried automatically apart from the single post-refresh retry.
package client
