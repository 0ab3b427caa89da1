package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fitcoach/internal/dbx"
	"github.com/dmitrijs2005/fitcoach/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/fitcoach/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a handle, so callers can
// run the same repositories on *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
