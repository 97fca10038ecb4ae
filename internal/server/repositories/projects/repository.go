package projects

import (
	"context"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

// Repository persists projects.
type Repository interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Project, error)
	ListOrdered(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, p *models.Project) (*models.Project, error)
	Delete(ctx context.Context, id string) error
}
