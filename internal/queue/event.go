// Package queue defines message payloads exchanged over the message broker.
package queue

// MailKind selects the email a MailEvent asks for.
type MailKind string

const (
    MailConfirmation  MailKind = "confirmation"
    MailPasswordReset MailKind = "password_reset"
)

// MailEvent is published when a flow needs an email sent. It never carries
// a token: the consumer mints one when it delivers the message, so the
// broker only ever sees addresses.
type MailEvent struct {
    Kind        MailKind `json:"kind"`
    Email       string   `json:"email"`
    Username    string   `json:"username"`
    Host        string   `json:"host"`         // base URL links in the email point at
    RequestedAt string   `json:"requested_at"` // RFC3339, UTC
}
