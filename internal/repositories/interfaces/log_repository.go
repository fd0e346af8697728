package interfaces

import (
	"context"

	"safetravel/internal/models"
)

type SpeedLogRepository interface {
	Append(ctx context.Context, sample *models.SpeedSample) error
	List(ctx context.Context) ([]*models.SpeedSample, error)
	ReplaceAll(ctx context.Context, samples []*models.SpeedSample) error
}

type MessageLogRepository interface {
	Append(ctx context.Context, message *models.OutboundMessage) error
	List(ctx context.Context) ([]*models.OutboundMessage, error)
}
