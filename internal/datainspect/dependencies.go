package datainspect

import (
	"context"

	"github.com/temirov/dbscripts/internal/database"
)

// ActivitySession exposes the read-only listings used by the inspector.
type ActivitySession interface {
	RecentUsers(executionContext context.Context, limit int) ([]database.User, error)
	RecentTransactions(executionContext context.Context, limit int) ([]database.TransactionSummary, error)
	Close() error
}

// SessionOpener establishes the session for one inspection.
type SessionOpener func(executionContext context.Context) (ActivitySession, error)
