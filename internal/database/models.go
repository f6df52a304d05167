package database

import "database/sql"

// User mirrors the columns of the users table read by the data inspector.
type User struct {
	ID         int64          `db:"id"`
	TelegramID sql.NullInt64  `db:"telegram_id"`
	FirstName  sql.NullString `db:"first_name"`
	Username   sql.NullString `db:"username"`
}

// TransactionSummary is a transaction joined to the first name of its owner.
// Identifiers and amounts are kept textual so integer, UUID, and numeric
// column types all scan without loss. Amount may be NULL.
type TransactionSummary struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Amount    sql.NullString `db:"amount"`
	Type      sql.NullString `db:"type"`
	FirstName sql.NullString `db:"first_name"`
}
