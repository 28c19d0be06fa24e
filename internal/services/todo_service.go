package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todo-api-be/internal/models"
)

// TodoServiceProvider defines the interface for todo services.
type TodoServiceProvider interface {
	CreateTodo(owner, text string) (models.Todo, error)
	GetAllTodos(owner string) ([]models.Todo, error)
	GetTodoByID(owner, id string) (models.Todo, error)
	UpdateTodo(owner, id string, patch models.TodoPatch) (models.Todo, error)
	DeleteTodo(owner, id string) (models.Todo, error)
}

// TodoService provides business logic for task records. Every query is
// scoped by the owner column; a todo belonging to someone else is
// indistinguishable from one that does not exist.
type TodoService struct {
	db *sql.DB
}

// NewTodoService creates a new TodoService.
func NewTodoService(db *sql.DB) *TodoService {
	return &TodoService{db: db}
}

// scanTodo is a helper to scan a todo from a row or rows object.
func scanTodo(scanner interface{ Scan(...interface{}) error }) (models.Todo, error) {
	var todo models.Todo
	var completedAt sql.NullInt64

	err := scanner.Scan(&todo.ID, &todo.Text, &todo.Completed, &completedAt, &todo.Owner)
	if err != nil {
		return todo, err
	}

	if completedAt.Valid {
		todo.CompletedAt = &completedAt.Int64
	}
	return todo, nil
}

// checkID rejects ids that do not parse as the store's native id format.
// A malformed id behaves exactly like a missing record.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return nil
}

// CreateTodo creates a new todo owned by the given user.
func (s *TodoService) CreateTodo(owner, text string) (models.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Todo{}, fmt.Errorf("%w: text is required", models.ErrValidation)
	}

	todo := models.Todo{
		ID:    uuid.New().String(),
		Text:  text,
		Owner: owner,
	}

	stmt, err := s.db.Prepare("INSERT INTO todos(id, text, completed, completed_at, owner) VALUES(?, ?, 0, NULL, ?)")
	if err != nil {
		return models.Todo{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(todo.ID, todo.Text, todo.Owner); err != nil {
		return models.Todo{}, err
	}
	return todo, nil
}

// GetAllTodos retrieves every todo owned by the given user.
func (s *TodoService) GetAllTodos(owner string) ([]models.Todo, error) {
	rows, err := s.db.Query(
		"SELECT id, text, completed, completed_at, owner FROM todos WHERE owner = ?", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

// GetTodoByID retrieves a single todo, scoped by owner.
func (s *TodoService) GetTodoByID(owner, id string) (models.Todo, error) {
	if err := checkID(id); err != nil {
		return models.Todo{}, err
	}

	row := s.db.QueryRow(
		"SELECT id, text, completed, completed_at, owner FROM todos WHERE id = ? AND owner = ?", id, owner)
	todo, err := scanTodo(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Todo{}, fmt.Errorf("%w: todo %s", models.ErrNotFound, id)
		}
		return models.Todo{}, err
	}
	return todo, nil
}

// UpdateTodo applies a patch to an owned todo. Only the text and completed
// fields are writable. Setting completed stamps the completion time;
// clearing it, or omitting it from the patch, resets both.
func (s *TodoService) UpdateTodo(owner, id string, patch models.TodoPatch) (models.Todo, error) {
	todo, err := s.GetTodoByID(owner, id)
	if err != nil {
		return models.Todo{}, err
	}

	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return models.Todo{}, fmt.Errorf("%w: text is required", models.ErrValidation)
		}
		todo.Text = text
	}

	if patch.Completed != nil && *patch.Completed {
		now := time.Now().UnixMilli()
		todo.Completed = true
		todo.CompletedAt = &now
	} else {
		todo.Completed = false
		todo.CompletedAt = nil
	}

	var completedAt sql.NullInt64
	if todo.CompletedAt != nil {
		completedAt = sql.NullInt64{Int64: *todo.CompletedAt, Valid: true}
	}

	_, err = s.db.Exec(
		"UPDATE todos SET text = ?, completed = ?, completed_at = ? WHERE id = ? AND owner = ?",
		todo.Text, todo.Completed, completedAt, id, owner,
	)
	if err != nil {
		return models.Todo{}, err
	}
	return todo, nil
}

// DeleteTodo removes an owned todo and returns the removed record.
func (s *TodoService) DeleteTodo(owner, id string) (models.Todo, error) {
	todo, err := s.GetTodoByID(owner, id)
	if err != nil {
		return models.Todo{}, err
	}

	res, err := s.db.Exec("DELETE FROM todos WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return models.Todo{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Todo{}, fmt.Errorf("%w: todo %s", models.ErrNotFound, id)
	}
	return todo, nil
}
