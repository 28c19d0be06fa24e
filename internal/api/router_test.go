package api_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/todo-api-be/internal/api"
	"github.com/isdelr/todo-api-be/internal/auth"
	"github.com/isdelr/todo-api-be/internal/database"
	"github.com/isdelr/todo-api-be/internal/models"
	"github.com/isdelr/todo-api-be/internal/services"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *chi.Mux
	users  *services.UserService
	todos  *services.TodoService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A pooled second connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	codec := auth.NewTokenCodec([]byte("test-secret"), time.Hour)
	users := services.NewUserService(db, codec)
	todos := services.NewTodoService(db)

	return &testServer{
		router: api.NewRouter(users, todos),
		users:  users,
		todos:  todos,
	}
}

// newSession registers a user and opens a session for them.
func (ts *testServer) newSession(t *testing.T, email string) (models.User, string) {
	t.Helper()
	user, err := ts.users.CreateUser(email, "123mnb!")
	require.NoError(t, err)
	token, err := ts.users.IssueAuthToken(user)
	require.NoError(t, err)
	return user, token
}

func headerPresent(name string) func(*http.Response, *http.Request) error {
	return func(res *http.Response, req *http.Request) error {
		if res.Header.Get(name) == "" {
			return fmt.Errorf("expected header %q to be set", name)
		}
		return nil
	}
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	apitest.Handler(ts.router).
		Post("/users").
		JSON(`{"email": "a@b.com", "password": "123mnb!"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(headerPresent(auth.TokenHeader)).
		Assert(jsonpath.Present("$._id")).
		Assert(jsonpath.Equal("$.email", "a@b.com")).
		Assert(jsonpath.NotPresent("$.password")).
		Assert(jsonpath.NotPresent("$.passwordHash")).
		Assert(jsonpath.NotPresent("$.tokens")).
		End()

	// The issued token is immediately usable.
	result := apitest.Handler(ts.router).
		Post("/users").
		JSON(`{"email": "c@d.com", "password": "123mnb!"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
	token := result.Response.Header.Get(auth.TokenHeader)
	require.NotEmpty(t, token)

	apitest.Handler(ts.router).
		Get("/users/me").
		Header(auth.TokenHeader, token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.email", "c@d.com")).
		End()
}

func TestRegister_Rejections(t *testing.T) {
	ts := newTestServer(t)

	apitest.Handler(ts.router).
		Post("/users").
		JSON(`{"email": "a@b.com", "password": "123mnb!"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	tests := []struct {
		name string
		body string
	}{
		{"duplicate email", `{"email": "a@b.com", "password": "123mnb!"}`},
		{"invalid email", `{"email": "nope", "password": "123mnb!"}`},
		{"short password", `{"email": "x@y.com", "password": "12345"}`},
		{"malformed body", `{"email": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apitest.Handler(ts.router).
				Post("/users").
				JSON(tt.body).
				Expect(t).
				Status(http.StatusBadRequest).
				End()
		})
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.newSession(t, "a@b.com")

	apitest.Handler(ts.router).
		Post("/users/login").
		JSON(`{"email": "a@b.com", "password": "123mnb!"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(headerPresent(auth.TokenHeader)).
		Assert(jsonpath.Equal("$.email", "a@b.com")).
		End()

	apitest.Handler(ts.router).
		Post("/users/login").
		JSON(`{"email": "a@b.com", "password": "wrong"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	apitest.Handler(ts.router).
		Post("/users/login").
		JSON(`{"email": "ghost@b.com", "password": "123mnb!"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.newSession(t, "a@b.com")

	apitest.Handler(ts.router).
		Get("/users/me").
		Header(auth.TokenHeader, token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$._id", user.ID)).
		Assert(jsonpath.Equal("$.email", "a@b.com")).
		End()

	apitest.Handler(ts.router).
		Get("/users/me").
		Expect(t).
		Status(http.StatusUnauthorized).
		Body("").
		End()
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.newSession(t, "a@b.com")

	apitest.Handler(ts.router).
		Delete("/users/me/token").
		Header(auth.TokenHeader, token).
		Expect(t).
		Status(http.StatusOK).
		Body("").
		End()

	// The revoked token no longer authenticates.
	apitest.Handler(ts.router).
		Get("/users/me").
		Header(auth.TokenHeader, token).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body("").
		End()
}

func TestTodos_RequireAuth(t *testing.T) {
	ts := newTestServer(t)

	// The request never reaches a handler: 401 with an empty body.
	apitest.Handler(ts.router).
		Post("/todos").
		JSON(`{"text": "buy milk"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body("").
		End()

	apitest.Handler(ts.router).
		Get("/todos").
		Expect(t).
		Status(http.StatusUnauthorized).
		Body("").
		End()
}

func TestCreateTodo(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.newSession(t, "a@b.com")

	apitest.Handler(ts.router).
		Post("/todos").
		Header(auth.TokenHeader, token).
		JSON(`{"text": "buy milk"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$._id")).
		Assert(jsonpath.Equal("$.text", "buy milk")).
		Assert(jsonpath.Equal("$.completed", false)).
		Assert(jsonpath.Equal("$.owner", user.ID)).
		End()

	apitest.Handler(ts.router).
		Post("/todos").
		Header(auth.TokenHeader, token).
		JSON(`{"text": ""}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestListTodos_ScopedToRequester(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.newSession(t, "alice@example.com")
	bob, bobToken := ts.newSession(t, "bob@example.com")

	_, err := ts.todos.CreateTodo(alice.ID, "alice's task")
	require.NoError(t, err)
	_, err = ts.todos.CreateTodo(bob.ID, "bob's task")
	require.NoError(t, err)

	apitest.Handler(ts.router).
		Get("/todos").
		Header(auth.TokenHeader, aliceToken).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.todos", 1)).
		Assert(jsonpath.Equal("$.todos[0].text", "alice's task")).
		End()

	apitest.Handler(ts.router).
		Get("/todos").
		Header(auth.TokenHeader, bobToken).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.todos", 1)).
		Assert(jsonpath.Equal("$.todos[0].text", "bob's task")).
		End()
}

func TestGetTodo(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.newSession(t, "a@b.com")

	todo, err := ts.todos.CreateTodo(user.ID, "buy milk")
	require.NoError(t, err)

	apitest.Handler(ts.router).
		Get("/todos/"+todo.ID).
		Header(auth.TokenHeader, token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.todo._id", todo.ID)).
		Assert(jsonpath.Equal("$.todo.text", "buy milk")).
		End()
}

func TestGetTodo_NotFoundCases(t *testing.T) {
	ts := newTestServer(t)
	alice, _ := ts.newSession(t, "alice@example.com")
	_, bobToken := ts.newSession(t, "bob@example.com")

	todo, err := ts.todos.CreateTodo(alice.ID, "alice's task")
	require.NoError(t, err)

	tests := []struct {
		name  string
		path  string
		token string
	}{
		{"someone else's todo", "/todos/" + todo.ID, bobToken},
		{"unknown id", "/todos/9f3c6b1e-0000-0000-0000-000000000000", bobToken},
		{"malformed id", "/todos/123abc", bobToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apitest.Handler(ts.router).
				Get(tt.path).
				Header(auth.TokenHeader, tt.token).
				Expect(t).
				Status(http.StatusNotFound).
				Body("").
				End()
		})
	}
}

func TestPatchTodo_CompletedToggling(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.newSession(t, "a@b.com")

	todo, err := ts.todos.CreateTodo(user.ID, "buy milk")
	require.NoError(t, err)

	apitest.Handler(ts.router).
		Patch("/todos/"+todo.ID).
		Header(auth.TokenHeader, token).
		JSON(`{"completed": true}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.todo.completed", true)).
		Assert(jsonpath.GreaterThan("$.todo.completedAt", 0)).
		End()

	apitest.Handler(ts.router).
		Patch("/todos/"+todo.ID).
		Header(auth.TokenHeader, token).
		JSON(`{"completed": false}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.todo.completed", false)).
		Assert(jsonpath.Equal("$.todo.completedAt", nil)).
		End()
}

func TestPatchTodo_OwnershipIsolation(t *testing.T) {
	ts := newTestServer(t)
	alice, _ := ts.newSession(t, "alice@example.com")
	_, bobToken := ts.newSession(t, "bob@example.com")

	todo, err := ts.todos.CreateTodo(alice.ID, "alice's task")
	require.NoError(t, err)

	apitest.Handler(ts.router).
		Patch("/todos/"+todo.ID).
		Header(auth.TokenHeader, bobToken).
		JSON(`{"completed": true}`).
		Expect(t).
		Status(http.StatusNotFound).
		Body("").
		End()

	got, err := ts.todos.GetTodoByID(alice.ID, todo.ID)
	require.NoError(t, err)
	require.False(t, got.Completed)
}

func TestDeleteTodo(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.newSession(t, "a@b.com")

	todo, err := ts.todos.CreateTodo(user.ID, "buy milk")
	require.NoError(t, err)

	apitest.Handler(ts.router).
		Delete("/todos/"+todo.ID).
		Header(auth.TokenHeader, token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.todo._id", todo.ID)).
		End()

	apitest.Handler(ts.router).
		Get("/todos/"+todo.ID).
		Header(auth.TokenHeader, token).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestDeleteTodo_OwnershipIsolation(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.newSession(t, "alice@example.com")
	_, bobToken := ts.newSession(t, "bob@example.com")

	todo, err := ts.todos.CreateTodo(alice.ID, "alice's task")
	require.NoError(t, err)

	apitest.Handler(ts.router).
		Delete("/todos/"+todo.ID).
		Header(auth.TokenHeader, bobToken).
		Expect(t).
		Status(http.StatusNotFound).
		Body("").
		End()

	// Still there for the owner.
	apitest.Handler(ts.router).
		Get("/todos/"+todo.ID).
		Header(auth.TokenHeader, aliceToken).
		Expect(t).
		Status(http.StatusOK).
		End()
}
