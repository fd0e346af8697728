package keyvalue

import (
	"context"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/kv"
)

type speedLogRepository struct {
	store kv.Store
}

func NewSpeedLogRepository(store kv.Store) interfaces.SpeedLogRepository {
	return &speedLogRepository{store: store}
}

func (r *speedLogRepository) List(ctx context.Context) ([]*models.SpeedSample, error) {
	var samples []*models.SpeedSample
	if err := load(ctx, r.store, utils.KeySpeedLog, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *speedLogRepository) Append(ctx context.Context, sample *models.SpeedSample) error {
	samples, err := r.List(ctx)
	if err != nil {
		return err
	}
	return save(ctx, r.store, utils.KeySpeedLog, append(samples, sample))
}

func (r *speedLogRepository) ReplaceAll(ctx context.Context, samples []*models.SpeedSample) error {
	if samples == nil {
		samples = []*models.SpeedSample{}
	}
	return save(ctx, r.store, utils.KeySpeedLog, samples)
}

type messageLogRepository struct {
	store kv.Store
}

func NewMessageLogRepository(store kv.Store) interfaces.MessageLogRepository {
	return &messageLogRepository{store: store}
}

func (r *messageLogRepository) List(ctx context.Context) ([]*models.OutboundMessage, error) {
	var messages []*models.OutboundMessage
	if err := load(ctx, r.store, utils.KeyMessageLog, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageLogRepository) Append(ctx context.Context, message *models.OutboundMessage) error {
	messages, err := r.List(ctx)
	if err != nil {
		return err
	}
	return save(ctx, r.store, utils.KeyMessageLog, append(messages, message))
}
