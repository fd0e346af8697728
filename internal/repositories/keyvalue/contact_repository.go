package keyvalue

import (
	"context"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/kv"
)

type contactRepository struct {
	store kv.Store
}

func NewContactRepository(store kv.Store) interfaces.ContactRepository {
	return &contactRepository{store: store}
}

func (r *contactRepository) List(ctx context.Context) ([]*models.EmergencyContact, error) {
	var contacts []*models.EmergencyContact
	if err := load(ctx, r.store, utils.KeyEmergencyContacts, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*models.EmergencyContact, error) {
	contacts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, contact := range contacts {
		if contact.ID == id {
			return contact, nil
		}
	}
	return nil, nil
}

func (r *contactRepository) FindByPhone(ctx context.Context, phone string) (*models.EmergencyContact, error) {
	digits := utils.DigitsOnly(phone)
	if digits == "" {
		return nil, nil
	}

	contacts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, contact := range contacts {
		if utils.DigitsOnly(contact.Phone) == digits {
			return contact, nil
		}
		if contact.WhatsAppNumber != "" && utils.DigitsOnly(contact.WhatsAppNumber) == digits {
			return contact, nil
		}
	}
	return nil, nil
}

func (r *contactRepository) Save(ctx context.Context, contact *models.EmergencyContact) error {
	contacts, err := r.List(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range contacts {
		if existing.ID == contact.ID {
			contacts[i] = contact
			replaced = true
			break
		}
	}
	if !replaced {
		contacts = append(contacts, contact)
	}

	return save(ctx, r.store, utils.KeyEmergencyContacts, contacts)
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	contacts, err := r.List(ctx)
	if err != nil {
		return err
	}

	kept := contacts[:0]
	for _, contact := range contacts {
		if contact.ID != id {
			kept = append(kept, contact)
		}
	}
	return r.ReplaceAll(ctx, kept)
}

func (r *contactRepository) ReplaceAll(ctx context.Context, contacts []*models.EmergencyContact) error {
	if contacts == nil {
		contacts = []*models.EmergencyContact{}
	}
	return save(ctx, r.store, utils.KeyEmergencyContacts, contacts)
}
