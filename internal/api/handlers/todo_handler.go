package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/todo-api-be/internal/auth"
	"github.com/isdelr/todo-api-be/internal/models"
	"github.com/isdelr/todo-api-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TodoHandler handles HTTP requests for todos. Every operation runs behind
// the auth middleware, so a user is always on the request context and all
// service calls are scoped to it.
type TodoHandler struct {
	service services.TodoServiceProvider
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(service services.TodoServiceProvider) *TodoHandler {
	return &TodoHandler{service: service}
}

// writeError sends a minimal JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Create handles the request to create a new todo.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	todo, err := h.service.CreateTodo(user.ID, payload.Text)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create todo")
		writeError(w, http.StatusBadRequest, "Failed to create todo")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(todo)
}

// GetAll handles the request to list the requester's todos.
func (h *TodoHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	todos, err := h.service.GetAllTodos(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list todos")
		writeError(w, http.StatusBadRequest, "Failed to list todos")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"todos": todos})
}

// Get handles the request to get a single owned todo by its ID.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	todo, err := h.service.GetTodoByID(user.ID, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("todo_id", id).Msg("Failed to get todo")
		writeError(w, http.StatusBadRequest, "Failed to get todo")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"todo": todo})
}

// Update handles the request to patch an owned todo. Only the text and
// completed fields are read from the body.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var patch models.TodoPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	todo, err := h.service.UpdateTodo(user.ID, id, patch)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if errors.Is(err, models.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("todo_id", id).Msg("Failed to update todo")
		writeError(w, http.StatusBadRequest, "Failed to update todo")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"todo": todo})
}

// Delete handles the request to delete an owned todo. The removed record
// is echoed back.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	todo, err := h.service.DeleteTodo(user.ID, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("todo_id", id).Msg("Failed to delete todo")
		writeError(w, http.StatusBadRequest, "Failed to delete todo")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"todo": todo})
}
