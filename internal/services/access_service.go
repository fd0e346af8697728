package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"safetravel/internal/config"
	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/logger"
)

type AccessTier string

const (
	TierNone      AccessTier = "none"
	TierShared    AccessTier = "shared"
	TierEmergency AccessTier = "emergency"
	TierFull      AccessTier = "full"
)

// AccessService is the read path used by a contact during a crisis. Each
// verifier gets its own AccessSession; nothing about it is persisted.
type AccessService interface {
	NewSession() *AccessSession
	// Access runs a one-shot login and unlocks whichever tiers the supplied
	// codes open, returning the merged payload.
	Access(ctx context.Context, req *AccessRequest) (*AccessPayload, error)
}

type AccessRequest struct {
	Phone         string `json:"phone"`
	EmergencyCode string `json:"emergency_code,omitempty"`
	PrivateCode   string `json:"private_code,omitempty"`
}

type AccessPayload struct {
	Tier              AccessTier                 `json:"tier"`
	Contact           *models.EmergencyContact   `json:"contact"`
	SharedContent     []*models.VaultEntry       `json:"shared_content"`
	Sessions          []*models.EmergencySession `json:"sessions"`
	LastKnownLocation *models.LocationData       `json:"last_known_location"`
	PrivateContent    []*models.VaultEntry       `json:"private_content"`
}

type EmergencyData struct {
	Sessions          []*models.EmergencySession `json:"sessions"`
	LastKnownLocation *models.LocationData       `json:"last_known_location"`
}

type accessService struct {
	sessionRepo interfaces.SessionRepository
	contactRepo interfaces.ContactRepository
	vaultRepo   interfaces.VaultRepository
	config      *config.EmergencyConfig
	logger      *logger.Logger
}

func NewAccessService(
	cfg *config.EmergencyConfig,
	sessionRepo interfaces.SessionRepository,
	contactRepo interfaces.ContactRepository,
	vaultRepo interfaces.VaultRepository,
	log *logger.Logger,
) AccessService {
	if log == nil {
		log = logger.NewNop()
	}
	return &accessService{
		sessionRepo: sessionRepo,
		contactRepo: contactRepo,
		vaultRepo:   vaultRepo,
		config:      cfg,
		logger:      log.WithComponent("access"),
	}
}

func (s *accessService) NewSession() *AccessSession {
	return &AccessSession{svc: s}
}

func (s *accessService) Access(ctx context.Context, req *AccessRequest) (*AccessPayload, error) {
	session := s.NewSession()
	payload, err := session.Login(ctx, req.Phone, req.EmergencyCode)
	if err != nil {
		return nil, err
	}

	if req.PrivateCode != "" {
		private, err := session.UnlockPrivate(ctx, req.PrivateCode)
		if err != nil {
			return nil, err
		}
		payload.PrivateContent = private
		payload.Tier = TierFull
	}
	return payload, nil
}

// AccessSession tracks one verifier through
// unauthenticated -> shared -> {emergency, full}. Tiers only widen until
// Logout.
type AccessSession struct {
	svc *accessService

	mu                sync.Mutex
	contact           *models.EmergencyContact
	emergencyUnlocked bool
	privateUnlocked   bool
}

// Login matches phone against the stored contacts. A non-empty
// emergencyCode is verified in the same step; a bad code fails the whole
// login, as does an unknown phone.
func (a *AccessSession) Login(ctx context.Context, phone, emergencyCode string) (*AccessPayload, error) {
	s := a.svc
	masked := utils.MaskPhone(utils.DigitsOnly(phone))

	contact, err := s.contactRepo.FindByPhone(ctx, phone)
	if err != nil {
		s.logger.WithError(err).Error("Failed to look up contact")
		return nil, fmt.Errorf("failed to verify phone number: %w", err)
	}
	if contact == nil {
		s.logger.LogAccessEvent(masked, string(TierShared), false, "phone not registered")
		return nil, ErrAccessDenied
	}

	var emergency *EmergencyData
	if emergencyCode != "" {
		emergency, err = s.verifyEmergency(ctx, emergencyCode)
		if err != nil {
			s.logger.LogAccessEvent(masked, string(TierEmergency), false, err.Error())
			return nil, err
		}
	}

	shared, err := s.sharedContent(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.contact = contact
	if emergency != nil {
		a.emergencyUnlocked = true
	}
	a.mu.Unlock()

	payload := &AccessPayload{
		Tier:          TierShared,
		Contact:       contact,
		SharedContent: shared,
		Sessions:      []*models.EmergencySession{},
	}
	if emergency != nil {
		payload.Tier = TierEmergency
		payload.Sessions = emergency.Sessions
		payload.LastKnownLocation = emergency.LastKnownLocation
	}

	s.logger.LogAccessEvent(masked, string(payload.Tier), true, "")
	return payload, nil
}

// UnlockEmergency opens the emergency tier for an authenticated verifier.
func (a *AccessSession) UnlockEmergency(ctx context.Context, code string) (*EmergencyData, error) {
	contact := a.Contact()
	if contact == nil {
		return nil, ErrAccessDenied
	}

	data, err := a.svc.verifyEmergency(ctx, code)
	if err != nil {
		a.svc.logger.LogAccessEvent(maskContact(contact), string(TierEmergency), false, err.Error())
		return nil, err
	}

	a.mu.Lock()
	a.emergencyUnlocked = true
	a.mu.Unlock()

	a.svc.logger.LogAccessEvent(maskContact(contact), string(TierEmergency), true, "")
	return data, nil
}

// UnlockPrivate opens the full tier. It does not require the emergency tier.
func (a *AccessSession) UnlockPrivate(ctx context.Context, code string) ([]*models.VaultEntry, error) {
	s := a.svc
	contact := a.Contact()
	if contact == nil {
		return nil, ErrAccessDenied
	}
	masked := maskContact(contact)

	if code == "" {
		s.logger.LogAccessEvent(masked, string(TierFull), false, "empty code")
		return nil, ErrInvalidCode
	}

	stored, err := s.vaultRepo.GetPrivateAccessCode(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load private access code")
		return nil, fmt.Errorf("failed to verify private access code: %w", err)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(code), []byte(stored)) != 1 {
		s.logger.LogAccessEvent(masked, string(TierFull), false, "code mismatch")
		return nil, ErrInvalidCode
	}

	private, err := s.vaultRepo.ListPrivate(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load private vault")
		return nil, fmt.Errorf("failed to load private vault: %w", err)
	}

	a.mu.Lock()
	a.privateUnlocked = true
	a.mu.Unlock()

	s.logger.LogAccessEvent(masked, string(TierFull), true, "")
	return nonNilEntries(private), nil
}

// Shared returns the shared tier payload.
func (a *AccessSession) Shared(ctx context.Context) ([]*models.VaultEntry, error) {
	if a.Contact() == nil {
		return nil, ErrAccessDenied
	}
	return a.svc.sharedContent(ctx)
}

// Emergency returns the emergency tier payload if it has been unlocked.
func (a *AccessSession) Emergency(ctx context.Context) (*EmergencyData, error) {
	a.mu.Lock()
	unlocked := a.contact != nil && a.emergencyUnlocked
	a.mu.Unlock()
	if !unlocked {
		return nil, ErrAccessDenied
	}
	return a.svc.emergencyData(ctx)
}

// Private returns the full tier payload if it has been unlocked.
func (a *AccessSession) Private(ctx context.Context) ([]*models.VaultEntry, error) {
	a.mu.Lock()
	unlocked := a.contact != nil && a.privateUnlocked
	a.mu.Unlock()
	if !unlocked {
		return nil, ErrAccessDenied
	}

	private, err := a.svc.vaultRepo.ListPrivate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load private vault: %w", err)
	}
	return nonNilEntries(private), nil
}

// Tier returns the widest tier unlocked so far.
func (a *AccessSession) Tier() AccessTier {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.contact == nil:
		return TierNone
	case a.privateUnlocked:
		return TierFull
	case a.emergencyUnlocked:
		return TierEmergency
	}
	return TierShared
}

func (a *AccessSession) EmergencyUnlocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.contact != nil && a.emergencyUnlocked
}

func (a *AccessSession) PrivateUnlocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.contact != nil && a.privateUnlocked
}

func (a *AccessSession) Contact() *models.EmergencyContact {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.contact
}

func (a *AccessSession) Logout() {
	a.mu.Lock()
	a.contact = nil
	a.emergencyUnlocked = false
	a.privateUnlocked = false
	a.mu.Unlock()
}

// verifyEmergency checks the code shape and, unless lenient checking is
// configured, that it equals the access code of one of the relevant sessions.
func (s *accessService) verifyEmergency(ctx context.Context, code string) (*EmergencyData, error) {
	if !utils.IsNumericCode(code, s.config.AccessCodeLength) {
		return nil, fmt.Errorf("access code must be %d digits: %w", s.config.AccessCodeLength, ErrInvalidCode)
	}

	data, err := s.emergencyData(ctx)
	if err != nil {
		return nil, err
	}
	if s.config.LenientAccessCode {
		return data, nil
	}

	matched := 0
	for _, session := range data.Sessions {
		matched |= subtle.ConstantTimeCompare([]byte(code), []byte(session.EmergencyAccessCode))
	}
	if matched != 1 {
		return nil, fmt.Errorf("access code does not match: %w", ErrInvalidCode)
	}
	return data, nil
}

// emergencyData selects every active session, or the most recent one when
// none is active, and the last fix of the first selected session.
func (s *accessService) emergencyData(ctx context.Context) (*EmergencyData, error) {
	sessions, err := s.sessionRepo.GetActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load active sessions")
		return nil, fmt.Errorf("failed to load emergency sessions: %w", err)
	}
	if len(sessions) == 0 {
		recent, err := s.sessionRepo.GetMostRecent(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Failed to load most recent session")
			return nil, fmt.Errorf("failed to load emergency sessions: %w", err)
		}
		sessions = []*models.EmergencySession{}
		if recent != nil {
			sessions = append(sessions, recent)
		}
	}

	data := &EmergencyData{Sessions: sessions}
	if len(sessions) > 0 {
		data.LastKnownLocation = sessions[0].LastLocation()
	}
	return data, nil
}

// maskContact renders a contact's phone the same way Login renders the
// verifier's input.
func maskContact(contact *models.EmergencyContact) string {
	return utils.MaskPhone(utils.DigitsOnly(contact.Phone))
}

func (s *accessService) sharedContent(ctx context.Context) ([]*models.VaultEntry, error) {
	shared, err := s.vaultRepo.ListShared(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load shared vault")
		return nil, fmt.Errorf("failed to load shared vault: %w", err)
	}
	return nonNilEntries(shared), nil
}

func nonNilEntries(entries []*models.VaultEntry) []*models.VaultEntry {
	if entries == nil {
		return []*models.VaultEntry{}
	}
	return entries
}
