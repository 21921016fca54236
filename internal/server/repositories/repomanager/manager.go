package repomanager

import (
	"context"
	"database/sql"

	"github.com/amaravathi/tradeidentity/internal/dbx"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/refreshsessions"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/roles"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/users"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/verificationlinks"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	RefreshSessions(db dbx.DBTX) refreshsessions.Repository
	VerificationLinks(db dbx.DBTX) verificationlinks.Repository
}
