package interfaces

import (
	"context"

	"safetravel/internal/models"
)

type ContactRepository interface {
	List(ctx context.Context) ([]*models.EmergencyContact, error)
	// GetByID returns nil when no contact has that id.
	GetByID(ctx context.Context, id string) (*models.EmergencyContact, error)
	// FindByPhone matches the digit form of phone against each contact's
	// phone and WhatsApp number. Returns nil when nothing matches.
	FindByPhone(ctx context.Context, phone string) (*models.EmergencyContact, error)
	Save(ctx context.Context, contact *models.EmergencyContact) error
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, contacts []*models.EmergencyContact) error
}
