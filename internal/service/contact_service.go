package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/contacts-api/internal/apperr"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
)

// Paging defaults of the contact list.
const (
	DefaultContactLimit = 100
	MaxContactLimit     = 100
	BirthdayWindowDays  = 7
)

// ContactStore persists contacts scoped to their owner.
type ContactStore interface {
	Create(ctx context.Context, userID uint64, c model.Contact) (model.Contact, error)
	List(ctx context.Context, userID uint64, p repository.ListParams) ([]model.Contact, error)
	GetByID(ctx context.Context, userID, id uint64) (model.Contact, error)
	Update(ctx context.Context, userID, id uint64, patch model.ContactPatch) (model.Contact, error)
	Delete(ctx context.Context, userID, id uint64) (model.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID uint64, from time.Time, days int) ([]model.Contact, error)
}

// ContactService is a thin layer over ContactStore that normalizes paging
// and translates storage errors.
type ContactService struct {
	contacts ContactStore
	now      func() time.Time
}

func NewContactService(contacts ContactStore) *ContactService {
	return &ContactService{contacts: contacts, now: time.Now}
}

func contactErr(op string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound("Contact not found")
	}
	return internalErr(op, err)
}

func (s *ContactService) Create(ctx context.Context, owner model.User, c model.Contact) (model.Contact, error) {
	out, err := s.contacts.Create(ctx, owner.ID, c)
	if err != nil {
		return model.Contact{}, contactErr("service.ContactService.Create", err)
	}
	return out, nil
}

// List clamps skip to >= 0 and limit to 1..MaxContactLimit.
func (s *ContactService) List(ctx context.Context, owner model.User, skip, limit int, search string) ([]model.Contact, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultContactLimit
	}
	if limit > MaxContactLimit {
		limit = MaxContactLimit
	}
	out, err := s.contacts.List(ctx, owner.ID, repository.ListParams{Skip: skip, Limit: limit, Search: search})
	if err != nil {
		return nil, contactErr("service.ContactService.List", err)
	}
	return out, nil
}

func (s *ContactService) Get(ctx context.Context, owner model.User, id uint64) (model.Contact, error) {
	out, err := s.contacts.GetByID(ctx, owner.ID, id)
	if err != nil {
		return model.Contact{}, contactErr("service.ContactService.Get", err)
	}
	return out, nil
}

func (s *ContactService) Update(ctx context.Context, owner model.User, id uint64, patch model.ContactPatch) (model.Contact, error) {
	out, err := s.contacts.Update(ctx, owner.ID, id, patch)
	if err != nil {
		return model.Contact{}, contactErr("service.ContactService.Update", err)
	}
	return out, nil
}

// Delete removes the contact and returns what was deleted.
func (s *ContactService) Delete(ctx context.Context, owner model.User, id uint64) (model.Contact, error) {
	out, err := s.contacts.Delete(ctx, owner.ID, id)
	if err != nil {
		return model.Contact{}, contactErr("service.ContactService.Delete", err)
	}
	return out, nil
}

// UpcomingBirthdays lists contacts with a birthday today or in the next
// six days.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, owner model.User) ([]model.Contact, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out, err := s.contacts.UpcomingBirthdays(ctx, owner.ID, from, BirthdayWindowDays)
	if err != nil {
		return nil, contactErr("service.ContactService.UpcomingBirthdays", err)
	}
	return out, nil
}
