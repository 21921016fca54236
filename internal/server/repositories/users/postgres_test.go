package users

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

func userRow(id int64, email string, status models.UserStatus, verified bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "phone", "full_name", "password_hash", "status",
		"email_verified", "phone_verified", "residence_country", "city",
		"preferred_language", "occupation", "interest", "previous_trading_exposure",
		"terms_accepted", "communication_consent", "created_at", "updated_at",
	}).AddRow(id, email, "", "Alice", "hash", status,
		verified, false, "", "", "", "", "", "", true, false, now, now)
}

func TestCreate_ReturnsGeneratedID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users .* RETURNING id, created_at, updated_at`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(42), now, now))

	u, err := repo.Create(context.Background(), &models.User{
		Email:        "alice@example.test",
		PasswordHash: "hash",
		Status:       models.UserStatusEnrolled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 42 {
		t.Fatalf("id not populated: %+v", u)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "dup@example.test"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("Alice@Example.Test").
		WillReturnRows(userRow(7, "alice@example.test", models.UserStatusActive, true))

	u, err := repo.GetByEmail(context.Background(), "Alice@Example.Test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 7 || u.Email != "alice@example.test" {
		t.Fatalf("bad user: %+v", u)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), 9); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestExistsByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice@example.test").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "alice@example.test")
	if err != nil || !exists {
		t.Fatalf("got (%v, %v), want (true, nil)", exists, err)
	}
}

func TestMarkEmailVerified_Activates(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE users\s+SET email_verified = TRUE, status = \$2, updated_at = now\(\)\s+WHERE id = \$1`).
		WithArgs(int64(7), models.UserStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkEmailVerified(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(`UPDATE users`).
		WithArgs(int64(9), models.UserStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkEmailVerified(context.Background(), 9); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET status = \$2, updated_at = now\(\) WHERE id = \$1`).
		WithArgs(int64(9), models.UserStatusDisabled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateStatus(context.Background(), 9, models.UserStatusDisabled); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestList_ScansAllRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := userRow(1, "a@example.test", models.UserStatusActive, true)
	now := time.Now()
	rows.AddRow(int64(2), "b@example.test", "", "Bob", "hash", models.UserStatusEnrolled,
		false, false, "", "", "", "", "", "", true, false, now, now)

	mock.ExpectQuery(`SELECT .* FROM users ORDER BY id`).WillReturnRows(rows)

	users, err := repo.List(context.Background())
	if err != nil || len(users) != 2 {
		t.Fatalf("List: got (%d, %v)", len(users), err)
	}
	if users[1].Email != "b@example.test" {
		t.Fatalf("bad second row: %+v", users[1])
	}
}
