package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/contacts-api/internal/model"
)

// ContactRepo provides access to the contacts table. Every query is
// scoped to the owning user.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

// ListParams drives List. Search matches first name, last name or email.
type ListParams struct {
	Skip   int
	Limit  int
	Search string
}

const contactColumns = "id, first_name, last_name, email, phone, birth_date, additional_data, user_id, created_at, updated_at"

func scanContact(row rowScanner) (model.Contact, error) {
	var (
		c     model.Contact
		birth time.Time
		extra sql.NullString
	)
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &birth, &extra, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Contact{}, ErrContactNotFound
		}
		return model.Contact{}, err
	}
	c.BirthDate = model.NewDate(birth.Year(), birth.Month(), birth.Day())
	if extra.Valid {
		c.AdditionalData = &extra.String
	}
	return c, nil
}

func (r *ContactRepo) query(ctx context.Context, q string, args ...any) ([]model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts c for userID and returns the stored row.
func (r *ContactRepo) Create(ctx context.Context, userID uint64, c model.Contact) (model.Contact, error) {
	const q = `INSERT INTO contacts (first_name, last_name, email, phone, birth_date, additional_data, user_id)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, q, c.FirstName, c.LastName, c.Email, c.Phone, c.BirthDate.String(), c.AdditionalData, userID)
	if err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return r.GetByID(ctx, userID, uint64(id))
}

// List returns a page of the user's contacts ordered by id.
func (r *ContactRepo) List(ctx context.Context, userID uint64, p ListParams) ([]model.Contact, error) {
	q := "SELECT " + contactColumns + " FROM contacts WHERE user_id = ?"
	args := []any{userID}
	if s := strings.TrimSpace(p.Search); s != "" {
		like := "%" + escapeLike(s) + "%"
		q += " AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)"
		args = append(args, like, like, like)
	}
	q += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, p.Limit, p.Skip)
	return r.query(ctx, q, args...)
}

// GetByID returns the contact id when it belongs to userID.
func (r *ContactRepo) GetByID(ctx context.Context, userID, id uint64) (model.Contact, error) {
	const q = "SELECT " + contactColumns + " FROM contacts WHERE id = ? AND user_id = ? LIMIT 1"
	return scanContact(r.DB.QueryRowContext(ctx, q, id, userID))
}

// Update applies the non-nil fields of patch and returns the stored row.
func (r *ContactRepo) Update(ctx context.Context, userID, id uint64, patch model.ContactPatch) (model.Contact, error) {
	if patch.Empty() {
		return r.GetByID(ctx, userID, id)
	}
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.BirthDate != nil {
		add("birth_date", patch.BirthDate.String())
	}
	if patch.AdditionalData != nil {
		add("additional_data", *patch.AdditionalData)
	}
	q := "UPDATE contacts SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, userID)

	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return model.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Contact{}, ErrContactNotFound
	}
	return r.GetByID(ctx, userID, id)
}

// Delete removes the contact and returns it as it was before deletion.
func (r *ContactRepo) Delete(ctx context.Context, userID, id uint64) (model.Contact, error) {
	c, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return model.Contact{}, err
	}
	const q = "DELETE FROM contacts WHERE id = ? AND user_id = ?"
	if _, err := r.DB.ExecContext(ctx, q, id, userID); err != nil {
		return model.Contact{}, fmt.Errorf("delete contact: %w", err)
	}
	return c, nil
}

// UpcomingBirthdays returns the user's contacts whose birthday (month and
// day) falls within days calendar days starting at from, soonest first.
func (r *ContactRepo) UpcomingBirthdays(ctx context.Context, userID uint64, from time.Time, days int) ([]model.Contact, error) {
	if days < 1 {
		return []model.Contact{}, nil
	}
	offset := make(map[[2]int]int, days)
	conds := make([]string, 0, days)
	args := []any{userID}
	for i := 0; i < days; i++ {
		d := from.AddDate(0, 0, i)
		k := [2]int{int(d.Month()), d.Day()}
		if _, seen := offset[k]; seen {
			continue
		}
		offset[k] = i
		conds = append(conds, "(MONTH(birth_date) = ? AND DAY(birth_date) = ?)")
		args = append(args, k[0], k[1])
	}
	q := "SELECT " + contactColumns + " FROM contacts WHERE user_id = ? AND (" +
		strings.Join(conds, " OR ") + ") ORDER BY MONTH(birth_date), DAY(birth_date)"

	out, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	// a window crossing New Year must list December before January
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := out[i].BirthDate, out[j].BirthDate
		return offset[[2]int{int(bi.Month()), bi.Day()}] < offset[[2]int{int(bj.Month()), bj.Day()}]
	})
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
