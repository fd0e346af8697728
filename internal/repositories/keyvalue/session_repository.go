package keyvalue

import (
	"context"
	"fmt"
	"sort"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/kv"
)

type sessionRepository struct {
	store kv.Store
}

func NewSessionRepository(store kv.Store) interfaces.SessionRepository {
	return &sessionRepository{store: store}
}

func (r *sessionRepository) List(ctx context.Context) ([]*models.EmergencySession, error) {
	var sessions []*models.EmergencySession
	if err := load(ctx, r.store, utils.KeyEmergencySessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *models.EmergencySession) error {
	sessions, err := r.List(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range sessions {
		if existing.ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}

	return save(ctx, r.store, utils.KeyEmergencySessions, sessions)
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.EmergencySession, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", id)
}

func (r *sessionRepository) GetActive(ctx context.Context) ([]*models.EmergencySession, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var active []*models.EmergencySession
	for _, session := range sessions {
		if session.IsActive {
			active = append(active, session)
		}
	}
	return active, nil
}

// GetMostRecent returns the session with the latest start time, or nil when
// no session has been stored.
func (r *sessionRepository) GetMostRecent(ctx context.Context) (*models.EmergencySession, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions[0], nil
}

func (r *sessionRepository) ReplaceAll(ctx context.Context, sessions []*models.EmergencySession) error {
	if sessions == nil {
		sessions = []*models.EmergencySession{}
	}
	return save(ctx, r.store, utils.KeyEmergencySessions, sessions)
}
