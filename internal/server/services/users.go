package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amaravathi/tradeidentity/internal/common"
	"github.com/amaravathi/tradeidentity/internal/dbx"
	"github.com/amaravathi/tradeidentity/internal/server/models"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/repomanager"
)

// UserAdminService implements the administrative operations on accounts.
type UserAdminService struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

// NewUserAdminService constructs a UserAdminService.
func NewUserAdminService(db *sql.DB, m repomanager.RepositoryManager) *UserAdminService {
	return &UserAdminService{db: db, rm: m}
}

// List returns all accounts.
func (s *UserAdminService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.rm.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// ChangeStatus moves the account to the given lifecycle status and returns
// the updated user.
func (s *UserAdminService) ChangeStatus(ctx context.Context, userID int64, status models.UserStatus) (*models.User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid userId", common.ErrInvalidArgument)
	}
	switch status {
	case models.UserStatusCreated, models.UserStatusEnrolled, models.UserStatusInvited,
		models.UserStatusPendingVerification, models.UserStatusActive, models.UserStatusDisabled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrInvalidArgument, status)
	}

	if err := s.rm.Users(s.db).UpdateStatus(ctx, userID, status); err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}
	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// SetRoles replaces the account's role assignments with exactly the given
// codes, atomically. Unknown codes reject the whole call.
func (s *UserAdminService) SetRoles(ctx context.Context, userID int64, codes []string) error {
	if userID <= 0 {
		return fmt.Errorf("%w: invalid userId", common.ErrInvalidArgument)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Roles(tx)
		if _, err := repo.RemoveAllFromUser(ctx, userID); err != nil {
			return fmt.Errorf("clearing roles: %w", err)
		}
		for _, code := range codes {
			role, err := repo.GetByCode(ctx, code)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("%w: unknown role code %q", common.ErrInvalidArgument, code)
				}
				return fmt.Errorf("resolving role: %w", err)
			}
			if err := repo.AddToUser(ctx, userID, role.ID); err != nil {
				return fmt.Errorf("granting role: %w", err)
			}
		}
		return nil
	})
}

// ListRoles returns every role defined in the system.
func (s *UserAdminService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.rm.Roles(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return roles, nil
}
