package model

import "time"

// Contact represents a row in the `contacts` table. Every contact belongs
// to exactly one user and is only visible to that user.
type Contact struct {
    ID             uint64    `json:"id"`              // contacts.id
    FirstName      string    `json:"first_name"`      // contacts.first_name
    LastName       string    `json:"last_name"`       // contacts.last_name
    Email          string    `json:"email"`           // contacts.email
    Phone          string    `json:"phone"`           // contacts.phone
    BirthDate      Date      `json:"birth_date"`      // contacts.birth_date
    AdditionalData *string   `json:"additional_data"` // contacts.additional_data (nullable)
    UserID         uint64    `json:"user_id"`         // contacts.user_id (owner)
    CreatedAt      time.Time `json:"created_at"`      // contacts.created_at
    UpdatedAt      time.Time `json:"updated_at"`      // contacts.updated_at
}

// ContactPatch carries the fields of a partial update. Nil pointers leave
// the stored value untouched.
type ContactPatch struct {
    FirstName      *string
    LastName       *string
    Email          *string
    Phone          *string
    BirthDate      *Date
    AdditionalData *string
}

// Empty reports whether the patch changes nothing.
func (p ContactPatch) Empty() bool {
    return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
        p.Phone == nil && p.BirthDate == nil && p.AdditionalData == nil
}
