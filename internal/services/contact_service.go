package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/logger"
)

type ContactService interface {
	AddContact(ctx context.Context, req *ContactRequest) (*models.EmergencyContact, error)
	UpdateContact(ctx context.Context, id string, req *ContactRequest) (*models.EmergencyContact, error)
	RemoveContact(ctx context.Context, id string) error
	GetContact(ctx context.Context, id string) (*models.EmergencyContact, error)
	ListContacts(ctx context.Context) ([]*models.EmergencyContact, error)
}

type ContactRequest struct {
	Name           string              `json:"name"`
	Phone          string              `json:"phone"`
	WhatsAppNumber string              `json:"whatsapp_number,omitempty"`
	Email          string              `json:"email,omitempty"`
	Relationship   string              `json:"relationship"`
	IsPrimary      bool                `json:"is_primary"`
	PushToken      string              `json:"push_token,omitempty"`
	PushPlatform   models.PushPlatform `json:"push_platform,omitempty"`
}

type contactService struct {
	contactRepo interfaces.ContactRepository
	logger      *logger.Logger
	nowF        func() time.Time
}

func NewContactService(contactRepo interfaces.ContactRepository, log *logger.Logger) ContactService {
	if log == nil {
		log = logger.NewNop()
	}
	return &contactService{
		contactRepo: contactRepo,
		logger:      log.WithComponent("contacts"),
		nowF:        time.Now,
	}
}

func (s *contactService) AddContact(ctx context.Context, req *ContactRequest) (*models.EmergencyContact, error) {
	if err := validateContact(req); err != nil {
		return nil, err
	}

	contact := &models.EmergencyContact{
		ID:        utils.NewID(),
		CreatedAt: s.nowF(),
	}
	applyContactRequest(contact, req)

	if err := s.contactRepo.Save(ctx, contact); err != nil {
		s.logger.WithError(err).Error("Failed to save contact")
		return nil, fmt.Errorf("failed to add contact: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"contact_id": contact.ID,
		"phone":      utils.MaskPhone(utils.DigitsOnly(contact.Phone)),
	}).Info("Emergency contact added")

	return contact, nil
}

func (s *contactService) UpdateContact(ctx context.Context, id string, req *ContactRequest) (*models.EmergencyContact, error) {
	if err := validateContact(req); err != nil {
		return nil, err
	}

	contact, err := s.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	applyContactRequest(contact, req)

	if err := s.contactRepo.Save(ctx, contact); err != nil {
		s.logger.WithError(err).Error("Failed to save contact")
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

func (s *contactService) RemoveContact(ctx context.Context, id string) error {
	if _, err := s.GetContact(ctx, id); err != nil {
		return err
	}
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove contact: %w", err)
	}

	s.logger.WithField("contact_id", id).Info("Emergency contact removed")
	return nil
}

func (s *contactService) GetContact(ctx context.Context, id string) (*models.EmergencyContact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return contact, nil
}

func (s *contactService) ListContacts(ctx context.Context) ([]*models.EmergencyContact, error) {
	contacts, err := s.contactRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	if contacts == nil {
		contacts = []*models.EmergencyContact{}
	}
	return contacts, nil
}

func validateContact(req *ContactRequest) error {
	if req == nil {
		return fmt.Errorf("missing contact: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Relationship) == "" {
		return fmt.Errorf("name and relationship are required: %w", ErrInvalidInput)
	}
	if !utils.IsValidPhone(req.Phone) {
		return fmt.Errorf("invalid phone number %q: %w", req.Phone, ErrInvalidInput)
	}
	if req.WhatsAppNumber != "" && !utils.IsValidPhone(req.WhatsAppNumber) {
		return fmt.Errorf("invalid whatsapp number %q: %w", req.WhatsAppNumber, ErrInvalidInput)
	}
	if req.PushToken != "" && req.PushPlatform != models.PushPlatformFCM && req.PushPlatform != models.PushPlatformAPNS {
		return fmt.Errorf("unknown push platform %q: %w", req.PushPlatform, ErrInvalidInput)
	}
	return nil
}

func applyContactRequest(contact *models.EmergencyContact, req *ContactRequest) {
	contact.Name = strings.TrimSpace(req.Name)
	contact.Phone = strings.TrimSpace(req.Phone)
	contact.WhatsAppNumber = strings.TrimSpace(req.WhatsAppNumber)
	contact.Email = strings.TrimSpace(req.Email)
	contact.Relationship = strings.TrimSpace(req.Relationship)
	contact.IsPrimary = req.IsPrimary
	contact.PushToken = req.PushToken
	contact.PushPlatform = req.PushPlatform
}
