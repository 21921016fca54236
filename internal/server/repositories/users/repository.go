package users

import (
	"context"

	"github.com/amaravathi/tradeidentity/internal/server/models"
)

// Repository is the user directory consumed by the authentication services.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error
	MarkEmailVerified(ctx context.Context, id int64) error
}
