// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/amaravathi/tradeidentity/internal/dbx"
	"github.com/amaravathi/tradeidentity/internal/server/migrations"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/refreshsessions"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/roles"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/users"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/verificationlinks"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Roles returns a roles.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Roles(db dbx.DBTX) roles.Repository {
	return roles.NewPostgresRepository(db)
}

// RefreshSessions returns a refreshsessions.Repository bound to the provided
// DBTX.
func (m *PostgresRepositoryManager) RefreshSessions(db dbx.DBTX) refreshsessions.Repository {
	return refreshsessions.NewPostgresRepository(db)
}

// VerificationLinks returns a verificationlinks.Repository bound to the
// provided DBTX.
func (m *PostgresRepositoryManager) VerificationLinks(db dbx.DBTX) verificationlinks.Repository {
	return verificationlinks.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed
// RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
