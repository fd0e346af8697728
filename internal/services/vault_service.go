package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"safetravel/internal/config"
	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/logger"
)

type VaultService interface {
	AddShared(ctx context.Context, req *VaultEntryRequest) (*models.VaultEntry, error)
	ListShared(ctx context.Context) ([]*models.VaultEntry, error)
	DeleteShared(ctx context.Context, id string) error

	AddPrivate(ctx context.Context, req *VaultEntryRequest) (*models.VaultEntry, error)
	ListPrivate(ctx context.Context) ([]*models.VaultEntry, error)
	DeletePrivate(ctx context.Context, id string) error
	// ToggleFlag flips the flag on a private entry. Flagging clears the
	// expiry; unflagging restarts it from now.
	ToggleFlag(ctx context.Context, id string) (*models.VaultEntry, error)

	// GeneratePrivateAccessCode replaces the stored code. The previous code
	// stops working immediately.
	GeneratePrivateAccessCode(ctx context.Context) (string, error)
	GetPrivateAccessCode(ctx context.Context) (string, error)
}

type VaultEntryRequest struct {
	Type        models.VaultEntryType `json:"type"`
	Title       string                `json:"title"`
	Content     string                `json:"content"`
	Description string                `json:"description,omitempty"`
	Flagged     bool                  `json:"flagged"`
}

type vaultService struct {
	vaultRepo   interfaces.VaultRepository
	contactRepo interfaces.ContactRepository
	notifier    NotificationService
	config      *config.EmergencyConfig
	logger      *logger.Logger
	nowF        func() time.Time

	// serialises read-modify-write of the vault collections
	mu sync.Mutex
}

// NewVaultService builds the vault manager. notifier may be nil, in which
// case new shared entries are stored without telling anyone.
func NewVaultService(
	cfg *config.EmergencyConfig,
	vaultRepo interfaces.VaultRepository,
	contactRepo interfaces.ContactRepository,
	notifier NotificationService,
	log *logger.Logger,
) VaultService {
	if log == nil {
		log = logger.NewNop()
	}
	return &vaultService{
		vaultRepo:   vaultRepo,
		contactRepo: contactRepo,
		notifier:    notifier,
		config:      cfg,
		logger:      log.WithComponent("vault"),
		nowF:        time.Now,
	}
}

func (s *vaultService) AddShared(ctx context.Context, req *VaultEntryRequest) (*models.VaultEntry, error) {
	if err := validateVaultEntry(req); err != nil {
		return nil, err
	}

	now := s.nowF()
	expires := now.Add(s.config.SharedVaultTTL)
	entry := &models.VaultEntry{
		ID:          utils.NewID(),
		Type:        req.Type,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Description: req.Description,
		Flagged:     true,
		IsPrivate:   false,
		CreatedAt:   now,
		ExpiresAt:   &expires,
	}

	s.mu.Lock()
	entries, err := s.vaultRepo.ListShared(ctx)
	if err == nil {
		err = s.vaultRepo.SaveShared(ctx, append([]*models.VaultEntry{entry}, entries...))
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.WithError(err).Error("Failed to store shared vault entry")
		return nil, fmt.Errorf("failed to add shared vault entry: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"entry_id": entry.ID,
		"type":     string(entry.Type),
	}).Info("Shared vault entry added")

	if s.config.NotifySharedContent {
		s.notifyShared(ctx, entry)
	}
	return entry, nil
}

func (s *vaultService) ListShared(ctx context.Context) ([]*models.VaultEntry, error) {
	entries, err := s.vaultRepo.ListShared(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared vault: %w", err)
	}
	return nonNilEntries(entries), nil
}

func (s *vaultService) DeleteShared(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.vaultRepo.ListShared(ctx)
	if err != nil {
		return fmt.Errorf("failed to list shared vault: %w", err)
	}
	kept, found := removeEntry(entries, id)
	if !found {
		return fmt.Errorf("shared vault entry %s: %w", id, ErrNotFound)
	}
	if err := s.vaultRepo.SaveShared(ctx, kept); err != nil {
		return fmt.Errorf("failed to delete shared vault entry: %w", err)
	}
	return nil
}

func (s *vaultService) AddPrivate(ctx context.Context, req *VaultEntryRequest) (*models.VaultEntry, error) {
	if err := validateVaultEntry(req); err != nil {
		return nil, err
	}

	now := s.nowF()
	entry := &models.VaultEntry{
		ID:          utils.NewID(),
		Type:        req.Type,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Description: req.Description,
		Flagged:     req.Flagged,
		IsPrivate:   true,
		CreatedAt:   now,
	}
	if !entry.Flagged {
		expires := now.Add(s.config.PrivateVaultTTL)
		entry.ExpiresAt = &expires
	}

	s.mu.Lock()
	entries, err := s.vaultRepo.ListPrivate(ctx)
	if err == nil {
		err = s.vaultRepo.SavePrivate(ctx, append([]*models.VaultEntry{entry}, entries...))
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.WithError(err).Error("Failed to store private vault entry")
		return nil, fmt.Errorf("failed to add private vault entry: %w", err)
	}
	return entry, nil
}

func (s *vaultService) ListPrivate(ctx context.Context) ([]*models.VaultEntry, error) {
	entries, err := s.vaultRepo.ListPrivate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list private vault: %w", err)
	}
	return nonNilEntries(entries), nil
}

func (s *vaultService) DeletePrivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.vaultRepo.ListPrivate(ctx)
	if err != nil {
		return fmt.Errorf("failed to list private vault: %w", err)
	}
	kept, found := removeEntry(entries, id)
	if !found {
		return fmt.Errorf("private vault entry %s: %w", id, ErrNotFound)
	}
	if err := s.vaultRepo.SavePrivate(ctx, kept); err != nil {
		return fmt.Errorf("failed to delete private vault entry: %w", err)
	}
	return nil
}

func (s *vaultService) ToggleFlag(ctx context.Context, id string) (*models.VaultEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.vaultRepo.ListPrivate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list private vault: %w", err)
	}

	var target *models.VaultEntry
	for _, entry := range entries {
		if entry.ID == id {
			target = entry
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("private vault entry %s: %w", id, ErrNotFound)
	}

	target.Flagged = !target.Flagged
	if target.Flagged {
		target.ExpiresAt = nil
	} else {
		expires := s.nowF().Add(s.config.PrivateVaultTTL)
		target.ExpiresAt = &expires
	}

	if err := s.vaultRepo.SavePrivate(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to update private vault entry: %w", err)
	}
	return target, nil
}

func (s *vaultService) GeneratePrivateAccessCode(ctx context.Context) (string, error) {
	code := utils.GenerateNumericCode(s.config.PrivateCodeLength)
	if err := s.vaultRepo.SavePrivateAccessCode(ctx, code); err != nil {
		s.logger.WithError(err).Error("Failed to store private access code")
		return "", fmt.Errorf("failed to generate private access code: %w", err)
	}
	s.logger.Info("Private access code regenerated")
	return code, nil
}

func (s *vaultService) GetPrivateAccessCode(ctx context.Context) (string, error) {
	code, err := s.vaultRepo.GetPrivateAccessCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load private access code: %w", err)
	}
	return code, nil
}

func (s *vaultService) notifyShared(ctx context.Context, entry *models.VaultEntry) {
	if s.notifier == nil {
		return
	}

	contacts, err := s.contactRepo.List(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load contacts for shared content notification")
		return
	}
	if len(contacts) == 0 {
		return
	}

	result := s.notifier.NotifySharedContent(ctx, contacts, entry.Title, entry.Type)
	s.logger.WithFields(map[string]interface{}{
		"entry_id": entry.ID,
		"contacts": len(result.Attempted),
		"failed":   result.Failed,
	}).Info("Contacts told about shared content")
}

func validateVaultEntry(req *VaultEntryRequest) error {
	if req == nil {
		return fmt.Errorf("missing vault entry: %w", ErrInvalidInput)
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("unknown vault entry type %q: %w", req.Type, ErrInvalidInput)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("title and content are required: %w", ErrInvalidInput)
	}
	return nil
}

func removeEntry(entries []*models.VaultEntry, id string) ([]*models.VaultEntry, bool) {
	kept := make([]*models.VaultEntry, 0, len(entries))
	found := false
	for _, entry := range entries {
		if entry.ID == id {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	return kept, found
}
