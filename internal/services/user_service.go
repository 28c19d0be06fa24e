package services

import (
	"database/sql"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todo-api-be/internal/auth"
	"github.com/isdelr/todo-api-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(email, password string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	IssueAuthToken(user models.User) (string, error)
	RevokeToken(user models.User, token string) error
	FindByToken(token string) (models.User, error)
	UpdatePassword(id, currentPassword, newPassword string) error
}

// UserService provides business logic for user accounts and their session
// tokens. The tokens table is the source of truth for which tokens are
// live: a token that verifies structurally but has no stored row does not
// authenticate.
type UserService struct {
	db    *sql.DB
	codec *auth.TokenCodec
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, codec *auth.TokenCodec) *UserService {
	return &UserService{db: db, codec: codec}
}

const minPasswordLength = 6

// normalizeEmail trims and lowercases an email so lookups and the unique
// constraint see one canonical form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %q is not a valid email", models.ErrValidation, email)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", models.ErrValidation, minPasswordLength)
	}
	return nil
}

// CreateUser registers a new user. The password is hashed exactly here,
// before the record is first written; nothing else in the save path ever
// touches the hash, so an already-hashed value is never re-hashed.
func (s *UserService) CreateUser(email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, email, password_hash) VALUES(?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.ID, user.Email, user.PasswordHash); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.User{}, fmt.Errorf("%w: %s", models.ErrDuplicateEmail, email)
		}
		return models.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
		}
		return models.User{}, err
	}
	return user, nil
}

// AuthenticateUser verifies a user's credentials. A missing account and a
// wrong password both fail identically so callers cannot probe for
// registered emails.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	email = normalizeEmail(email)

	var user models.User
	row := s.db.QueryRow("SELECT id, email, password_hash FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, models.ErrAuthFailed
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, models.ErrAuthFailed
	}

	user.PasswordHash = ""
	return user, nil
}

// IssueAuthToken signs a fresh auth token for the user and records it.
// Each call produces a distinct token, so a user can hold several live
// sessions at once; the append is a single INSERT and safe under
// concurrent logins.
func (s *UserService) IssueAuthToken(user models.User) (string, error) {
	token, err := s.codec.Sign(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO tokens(id, user_id, purpose, token, created_at) VALUES(?, ?, ?, ?, ?)",
		uuid.New().String(), user.ID, auth.PurposeAuth, token, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// RevokeToken removes every stored copy of the given token for the user.
// Revoking a token that is already gone is a no-op, not an error.
func (s *UserService) RevokeToken(user models.User, token string) error {
	_, err := s.db.Exec("DELETE FROM tokens WHERE user_id = ? AND token = ?", user.ID, token)
	return err
}

// FindByToken resolves a presented token to its user. The signature is
// checked before any storage access, so garbage tokens never reach the
// database. A token that verifies but has no stored row with the auth
// purpose has been revoked and fails the same way.
func (s *UserService) FindByToken(token string) (models.User, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return models.User{}, models.ErrAuthFailed
	}
	if claims.Purpose != auth.PurposeAuth {
		return models.User{}, models.ErrAuthFailed
	}

	var user models.User
	row := s.db.QueryRow(`
		SELECT u.id, u.email FROM users u
		JOIN tokens t ON t.user_id = u.id
		WHERE u.id = ? AND t.token = ? AND t.purpose = ?`,
		claims.Subject, token, auth.PurposeAuth,
	)
	err = row.Scan(&user.ID, &user.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, models.ErrAuthFailed
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdatePassword verifies the current password, then hashes and sets a new
// password for a user. This is the only other place a password is hashed.
func (s *UserService) UpdatePassword(id, currentPassword, newPassword string) error {
	var storedHash string
	row := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", id)
	if err := row.Scan(&storedHash); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: user %s", models.ErrNotFound, id)
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(currentPassword)); err != nil {
		return models.ErrAuthFailed
	}

	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", models.ErrValidation, minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), id)
	return err
}
