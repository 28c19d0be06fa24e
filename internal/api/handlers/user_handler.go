package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/todo-api-be/internal/auth"
	"github.com/isdelr/todo-api-be/internal/models"
	"github.com/isdelr/todo-api-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for user accounts and sessions.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// CredentialsPayload defines the structure for registration and login
// requests.
type CredentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration. On success the response carries
// a fresh auth token in the x-auth header alongside the created user.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Failed to register user")
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	token, err := h.service.IssueAuthToken(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	w.Header().Set(auth.TokenHeader, token)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Login handles user authentication and issues a new session token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.AuthenticateUser(payload.Email, payload.Password)
	if err != nil {
		if !errors.Is(err, models.ErrAuthFailed) {
			log.Error().Err(err).Msg("Login lookup failed")
		}
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := h.service.IssueAuthToken(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	w.Header().Set(auth.TokenHeader, token)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// GetMe returns the currently authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user from context")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Logout revokes the token the request authenticated with, ending that
// session. Other sessions of the same user stay valid.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, okUser := auth.UserFromContext(r.Context())
	token, okToken := auth.TokenFromContext(r.Context())
	if !okUser || !okToken {
		log.Error().Msg("Could not retrieve session from context")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.service.RevokeToken(user, token); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to revoke token")
		writeError(w, http.StatusBadRequest, "Failed to revoke token")
		return
	}

	w.WriteHeader(http.StatusOK)
}
