package refreshsessions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amaravathi/tradeidentity/internal/common"
	"github.com/amaravathi/tradeidentity/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(time.Hour)
	created := time.Now()
	mock.ExpectQuery(`INSERT INTO refresh_sessions .* RETURNING id, created_at`).
		WithArgs(int64(7), "hash", expires).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), created))

	s := &models.RefreshSession{UserID: 7, TokenHash: "hash", ExpiresAt: expires}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != 11 || !s.CreatedAt.Equal(created) {
		t.Fatalf("row not populated: %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateFingerprint(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO refresh_sessions`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &models.RefreshSession{UserID: 7, TokenHash: "dup"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestFindByFingerprint_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM refresh_sessions WHERE token_hash = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.FindByFingerprint(context.Background(), "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFindByFingerprint_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "token_hash", "expires_at", "revoked_at",
		"replaced_by_hash", "created_at", "last_used_at",
	}).AddRow(int64(11), int64(7), "hash", now.Add(time.Hour), nil, nil, now, nil)

	mock.ExpectQuery(`SELECT .* FROM refresh_sessions WHERE token_hash = \$1`).
		WithArgs("hash").
		WillReturnRows(rows)

	s, err := repo.FindByFingerprint(context.Background(), "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != 11 || s.UserID != 7 || s.RevokedAt != nil || s.ReplacedByHash != nil {
		t.Fatalf("bad session: %+v", s)
	}
}

func TestFindByFingerprintForUpdate_LocksRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "token_hash", "expires_at", "revoked_at",
		"replaced_by_hash", "created_at", "last_used_at",
	}).AddRow(int64(11), int64(7), "hash", now.Add(time.Hour), nil, nil, now, nil)

	mock.ExpectQuery(`SELECT .* FROM refresh_sessions WHERE token_hash = \$1 FOR UPDATE`).
		WithArgs("hash").
		WillReturnRows(rows)

	if _, err := repo.FindByFingerprintForUpdate(context.Background(), "hash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkRotated_AlreadyRevoked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE refresh_sessions\s+SET revoked_at = \$2, replaced_by_hash = \$3, last_used_at = \$2\s+WHERE id = \$1 AND revoked_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRotated(context.Background(), 11, "successor", time.Now())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound when already revoked, got %v", err)
	}
}

func TestMarkRotated_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(`UPDATE refresh_sessions`).
		WithArgs(int64(11), now, "successor").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkRotated(context.Background(), 11, "successor", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRevoke_ZeroRowsIsNotAnError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE refresh_sessions\s+SET revoked_at = \$2\s+WHERE token_hash = \$1 AND revoked_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Revoke(context.Background(), "missing", time.Now())
	if err != nil || n != 0 {
		t.Fatalf("got (%d, %v), want (0, nil)", n, err)
	}
}

func TestRevokeAllForUser_ReturnsCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE refresh_sessions\s+SET revoked_at = \$2\s+WHERE user_id = \$1 AND revoked_at IS NULL`).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.RevokeAllForUser(context.Background(), 7, time.Now())
	if err != nil || n != 3 {
		t.Fatalf("got (%d, %v), want (3, nil)", n, err)
	}
}
