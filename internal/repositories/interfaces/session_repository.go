package interfaces

import (
	"context"

	"safetravel/internal/models"
)

type SessionRepository interface {
	// Save upserts the whole session object by id.
	Save(ctx context.Context, session *models.EmergencySession) error
	GetByID(ctx context.Context, id string) (*models.EmergencySession, error)
	List(ctx context.Context) ([]*models.EmergencySession, error)
	GetActive(ctx context.Context) ([]*models.EmergencySession, error)
	GetMostRecent(ctx context.Context) (*models.EmergencySession, error)
	ReplaceAll(ctx context.Context, sessions []*models.EmergencySession) error
}
