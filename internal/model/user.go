package model

import "time"

// Role is the authorization level of a user. It is stored as the
// lowercase enum value of the `users.role` column.
type Role string

const (
    RoleUser  Role = "user"  // default role given at registration
    RoleAdmin Role = "admin" // may provision admins, manage avatars and roles
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    return r == RoleUser || r == RoleAdmin
}

// User represents an application user record as stored in the `users`
// table. The same struct is returned by the API and written to the user
// cache, so PasswordHash is excluded from JSON and never leaves the
// process.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name; also the subject of access tokens.
//  Email        – unique email address; subject of confirmation/reset tokens.
//  PasswordHash – bcrypt hashed password.
//  Avatar       – public avatar URL (Gravatar until an upload replaces it).
//  Confirmed    – whether the email address has been confirmed.
//  Role         – user or admin.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`         // users.id
    Username     string    `json:"username"`   // users.username
    Email        string    `json:"email"`      // users.email
    PasswordHash string    `json:"-"`          // users.hashed_password
    Avatar       string    `json:"avatar"`     // users.avatar (empty when NULL)
    Confirmed    bool      `json:"confirmed"`  // users.confirmed
    Role         Role      `json:"role"`       // users.role
    CreatedAt    time.Time `json:"created_at"` // users.created_at
}
