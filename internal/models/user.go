package models

// User represents a user account in the system. Only the id and email are
// ever serialized; the password hash and issued tokens stay server-side.
type User struct {
	ID           string `json:"_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}
