// Package testutil provides in-memory stand-ins for the user directory,
// the user cache and the mailer. Tests across packages share them.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// Users is an in-memory user directory. It returns the same error values
// as repository.UserRepo.
type Users struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User

	// Err, when set, is returned by every call.
	Err error
	// UsernameLookups counts FindByUsername calls.
	UsernameLookups int
}

func NewUsers() *Users { return &Users{byID: map[uint64]model.User{}} }

// Add stores u as is, assigning an ID when it has none.
func (s *Users) Add(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.byID[u.ID] = u
	return u
}

func (s *Users) find(match func(model.User) bool) (model.User, error) {
	if s.Err != nil {
		return model.User{}, s.Err
	}
	for _, u := range s.byID {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *Users) FindByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(u model.User) bool { return u.ID == id })
}

func (s *Users) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UsernameLookups++
	return s.find(func(u model.User) bool { return u.Username == username })
}

func (s *Users) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(u model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Users) Insert(_ context.Context, nu repository.NewUser, avatar string, role model.Role) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	for _, u := range s.byID {
		if u.Username == nu.Username || strings.EqualFold(u.Email, nu.Email) {
			return model.User{}, repository.ErrDuplicate
		}
	}
	s.nextID++
	u := model.User{
		ID:           s.nextID,
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Avatar:       avatar,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	s.byID[u.ID] = u
	return u, nil
}

func (s *Users) update(email string, fn func(*model.User)) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.find(func(u model.User) bool { return strings.EqualFold(u.Email, email) })
	if err != nil {
		return model.User{}, err
	}
	fn(&u)
	s.byID[u.ID] = u
	return u, nil
}

func (s *Users) SetConfirmed(_ context.Context, email string) error {
	_, err := s.update(email, func(u *model.User) { u.Confirmed = true })
	return err
}

func (s *Users) SetPasswordHash(_ context.Context, email, hash string) error {
	_, err := s.update(email, func(u *model.User) { u.PasswordHash = hash })
	return err
}

func (s *Users) SetAvatar(_ context.Context, email, url string) (model.User, error) {
	return s.update(email, func(u *model.User) { u.Avatar = url })
}

func (s *Users) SetRole(_ context.Context, email string, role model.Role) (model.User, error) {
	return s.update(email, func(u *model.User) { u.Role = role })
}

// Ping reports Err.
func (s *Users) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err
}

// Cache is an in-memory user cache that ignores TTLs but records them.
type Cache struct {
	mu      sync.Mutex
	entries map[string]model.User
	TTLs    map[string]time.Duration
	Down    bool
}

func NewCache() *Cache {
	return &Cache{entries: map[string]model.User{}, TTLs: map[string]time.Duration{}}
}

func (c *Cache) Get(_ context.Context, username string) (model.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[username]
	return u, ok
}

func (c *Cache) Set(_ context.Context, u model.User, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[u.Username] = u
	c.TTLs[u.Username] = ttl
}

func (c *Cache) Delete(_ context.Context, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, username)
}

func (c *Cache) Ping(context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.Down
}

// Has reports whether username is cached.
func (c *Cache) Has(username string) bool {
	_, ok := c.Get(context.Background(), username)
	return ok
}

// SentMail is one recorded Mailer call.
type SentMail struct {
	Kind     string
	Email    string
	Username string
	Host     string
}

// Mailer records dispatch requests instead of sending them.
type Mailer struct {
	mu   sync.Mutex
	sent []SentMail
	Err  error
}

func (m *Mailer) record(kind, email, username, host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentMail{Kind: kind, Email: email, Username: username, Host: host})
	return nil
}

func (m *Mailer) SendConfirmation(_ context.Context, email, username, host string) error {
	return m.record("confirmation", email, username, host)
}

func (m *Mailer) SendPasswordReset(_ context.Context, email, username, host string) error {
	return m.record("password_reset", email, username, host)
}

// Sent returns a copy of the recorded calls.
func (m *Mailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// Contacts is an in-memory contact store scoped by owner.
type Contacts struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Contact
}

func NewContacts() *Contacts { return &Contacts{rows: map[uint64]model.Contact{}} }

func (s *Contacts) Create(_ context.Context, userID uint64, c model.Contact) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC()
	c.ID, c.UserID, c.CreatedAt, c.UpdatedAt = s.nextID, userID, now, now
	s.rows[c.ID] = c
	return c, nil
}

func (s *Contacts) List(_ context.Context, userID uint64, p repository.ListParams) ([]model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(p.Search)
	var out []model.Contact
	for _, c := range s.sorted() {
		if c.UserID != userID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.FirstName+" "+c.LastName+" "+c.Email), q) {
			continue
		}
		out = append(out, c)
	}
	if p.Skip >= len(out) {
		return []model.Contact{}, nil
	}
	out = out[p.Skip:]
	if p.Limit > 0 && p.Limit < len(out) {
		out = out[:p.Limit]
	}
	return out, nil
}

func (s *Contacts) sorted() []model.Contact {
	out := make([]model.Contact, 0, len(s.rows))
	for _, c := range s.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Contacts) GetByID(_ context.Context, userID, id uint64) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok || c.UserID != userID {
		return model.Contact{}, repository.ErrContactNotFound
	}
	return c, nil
}

func (s *Contacts) Update(_ context.Context, userID, id uint64, p model.ContactPatch) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok || c.UserID != userID {
		return model.Contact{}, repository.ErrContactNotFound
	}
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.BirthDate != nil {
		c.BirthDate = *p.BirthDate
	}
	if p.AdditionalData != nil {
		c.AdditionalData = p.AdditionalData
	}
	c.UpdatedAt = time.Now().UTC()
	s.rows[id] = c
	return c, nil
}

func (s *Contacts) Delete(_ context.Context, userID, id uint64) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok || c.UserID != userID {
		return model.Contact{}, repository.ErrContactNotFound
	}
	delete(s.rows, id)
	return c, nil
}

// UpcomingBirthdays matches on month and day within [from, from+days).
func (s *Contacts) UpcomingBirthdays(_ context.Context, userID uint64, from time.Time, days int) ([]model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Contact
	for d := 0; d < days; d++ {
		day := from.AddDate(0, 0, d)
		for _, c := range s.sorted() {
			if c.UserID == userID && c.BirthDate.Month() == day.Month() && c.BirthDate.Day() == day.Day() {
				out = append(out, c)
			}
		}
	}
	return out, nil
}
