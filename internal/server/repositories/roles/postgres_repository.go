// Package roles provides a PostgreSQL-backed repository for roles and
// user-role assignments.
package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amaravathi/tradeidentity/internal/common"
	"github.com/amaravathi/tradeidentity/internal/dbx"
	"github.com/amaravathi/tradeidentity/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByCode returns the role with the given code or common.ErrNotFound.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*models.Role, error) {
	query := `SELECT id, code, name, type, description FROM roles WHERE code = $1`
	role := &models.Role{}
	err := r.db.QueryRowContext(ctx, query, code).
		Scan(&role.ID, &role.Code, &role.Name, &role.Type, &role.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return role, nil
}

// List returns all roles ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Role, error) {
	query := `SELECT id, code, name, type, description FROM roles ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Role
	for rows.Next() {
		role := models.Role{}
		if err := rows.Scan(&role.ID, &role.Code, &role.Name, &role.Type, &role.Description); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// CodesForUser returns the role codes assigned to a user. A user with no
// assignments yields an empty slice, not an error.
func (r *PostgresRepository) CodesForUser(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT r.code
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.code
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return codes, nil
}

// AddToUser assigns a role to a user. Assigning an already-held role is a
// no-op rather than an error.
func (r *PostgresRepository) AddToUser(ctx context.Context, userID, roleID int64) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RemoveAllFromUser clears a user's role assignments and returns the number
// removed.
func (r *PostgresRepository) RemoveAllFromUser(ctx context.Context, userID int64) (int64, error) {
	query := `DELETE FROM user_roles WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
