package users

import (
	"context"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

// Repository is the user directory.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
