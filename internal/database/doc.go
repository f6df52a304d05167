// Package database opens the single pinned connection used by the diagnostic
// commands and exposes the catalog lookups, row counts, listings, and the one
// permitted schema repair as Session methods.
//
// PostgreSQL is reached through pgx (default) or lib/pq; SQLite through
// modernc.org/sqlite. All drivers are driven through sqlx.
package database
