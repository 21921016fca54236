package roles

import (
	"context"

	"github.com/amaravathi/tradeidentity/internal/server/models"
)

// Repository resolves roles and user-role assignments.
type Repository interface {
	GetByCode(ctx context.Context, code string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	CodesForUser(ctx context.Context, userID int64) ([]string, error)
	AddToUser(ctx context.Context, userID, roleID int64) error
	RemoveAllFromUser(ctx context.Context, userID int64) (int64, error)
}
