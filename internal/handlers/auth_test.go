package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/task-diary/apiserver/internal/services"
	"github.com/task-diary/apiserver/internal/store"
	"github.com/task-diary/apiserver/types"
)

const testSecret = "test-secret"

type fakeUserRepo struct {
	users map[string]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]types.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if _, exists := f.users[user.Email]; exists {
		return types.User{}, store.ErrDuplicateEmail
	}
	now := time.Now()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	user, exists := f.users[email]
	if !exists {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

type fakeTaskStore struct {
	tasks []types.Task
}

func (f *fakeTaskStore) ListByUser(_ context.Context, userID uuid.UUID) ([]types.Task, error) {
	result := make([]types.Task, 0)
	for _, task := range f.tasks {
		if task.UserID == userID {
			result = append(result, task)
		}
	}
	return result, nil
}

func (f *fakeTaskStore) Create(_ context.Context, task types.Task) (types.Task, error) {
	now := time.Now()
	task.ID = uuid.New()
	task.Completed = false
	task.CreatedAt = now
	task.UpdatedAt = now
	// Prepend so lists come back newest first, like the SQL ordering.
	f.tasks = append([]types.Task{task}, f.tasks...)
	return task, nil
}

func (f *fakeTaskStore) Update(_ context.Context, userID, taskID uuid.UUID, patch types.TaskPatch) (types.Task, error) {
	for i, task := range f.tasks {
		if task.ID == taskID && task.UserID == userID {
			if patch.Title != nil {
				task.Title = *patch.Title
			}
			if patch.Completed != nil {
				task.Completed = *patch.Completed
			}
			task.UpdatedAt = time.Now()
			f.tasks[i] = task
			return task, nil
		}
	}
	return types.Task{}, store.ErrNotFound
}

func (f *fakeTaskStore) Delete(_ context.Context, userID, taskID uuid.UUID) (bool, error) {
	for i, task := range f.tasks {
		if task.ID == taskID && task.UserID == userID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newTestRouter() *chi.Mux {
	userService := services.NewUserService(newFakeUserRepo())
	taskService := services.NewTaskService(&fakeTaskStore{})

	router := chi.NewRouter()
	router.Get("/", Health)
	AuthRouter(router, userService, testSecret)
	router.Route("/tasks", func(r chi.Router) {
		TaskRouter(r, taskService, RequireAuth(testSecret))
	})
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, value any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), value))
}

func signup(t *testing.T, router http.Handler, name, email, password string) PublicUser {
	t.Helper()

	recorder := doRequest(t, router, http.MethodPost, "/signup", "", SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp SignupResponse
	decodeBody(t, recorder, &resp)
	return resp.User
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	recorder := doRequest(t, router, http.MethodPost, "/login", "", LoginRequest{
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp TokenResponse
	decodeBody(t, recorder, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	router := newTestRouter()

	recorder := doRequest(t, router, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var resp MessageResponse
	decodeBody(t, recorder, &resp)
	assert.Equal(t, "Server is working correctly", resp.Msg)
}

func TestSignup(t *testing.T) {
	router := newTestRouter()

	user := signup(t, router, "Ann", "a@x.com", "pw123")
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "a@x.com", user.Email)

	recorder := doRequest(t, router, http.MethodPost, "/signup", "", SignupRequest{
		Name:     "Ann",
		Email:    "a@x.com",
		Password: "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp MessageResponse
	decodeBody(t, recorder, &resp)
	assert.Equal(t, "Email already in use", resp.Msg)
}

func TestSignupNeverLeaksPassword(t *testing.T) {
	router := newTestRouter()

	recorder := doRequest(t, router, http.MethodPost, "/signup", "", SignupRequest{
		Email:    "secret@x.com",
		Password: "supersecret",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "supersecret")
	assert.NotContains(t, recorder.Body.String(), "password")
}

func TestSignupMissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  SignupRequest
	}{
		{name: "no email", req: SignupRequest{Password: "pw123"}},
		{name: "no password", req: SignupRequest{Email: "a@x.com"}},
		{name: "blank email", req: SignupRequest{Email: "   ", Password: "pw123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()

			recorder := doRequest(t, router, http.MethodPost, "/signup", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)

			var resp MessageResponse
			decodeBody(t, recorder, &resp)
			assert.Equal(t, "Missing fields", resp.Msg)
		})
	}
}

func TestSignupAllowsNamelessAccounts(t *testing.T) {
	router := newTestRouter()

	user := signup(t, router, "", "anon@x.com", "pw123")
	assert.Empty(t, user.Name)
}

func TestLoginDistinctErrorMessages(t *testing.T) {
	router := newTestRouter()
	signup(t, router, "Ann", "a@x.com", "pw123")

	recorder := doRequest(t, router, http.MethodPost, "/login", "", LoginRequest{
		Email:    "nobody@x.com",
		Password: "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	var resp MessageResponse
	decodeBody(t, recorder, &resp)
	assert.Equal(t, "User not found", resp.Msg)

	recorder = doRequest(t, router, http.MethodPost, "/login", "", LoginRequest{
		Email:    "a@x.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	decodeBody(t, recorder, &resp)
	assert.Equal(t, "Wrong password", resp.Msg)
}

func TestLoginMissingFields(t *testing.T) {
	router := newTestRouter()

	recorder := doRequest(t, router, http.MethodPost, "/login", "", LoginRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp MessageResponse
	decodeBody(t, recorder, &resp)
	assert.Equal(t, "Missing fields", resp.Msg)
}

func TestProfile(t *testing.T) {
	router := newTestRouter()
	signup(t, router, "Ann", "a@x.com", "pw123")
	token := login(t, router, "a@x.com", "pw123")

	recorder := doRequest(t, router, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var profile map[string]any
	decodeBody(t, recorder, &profile)
	assert.Equal(t, "Ann", profile["name"])
	assert.Equal(t, "a@x.com", profile["email"])
	assert.NotContains(t, profile, "password_hash")
	assert.NotContains(t, recorder.Body.String(), "pw123")
}

func TestAccessGateRejections(t *testing.T) {
	router := newTestRouter()
	user := signup(t, router, "Ann", "a@x.com", "pw123")

	t.Run("no token", func(t *testing.T) {
		recorder := doRequest(t, router, http.MethodGet, "/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)

		var resp MessageResponse
		decodeBody(t, recorder, &resp)
		assert.Equal(t, "No token", resp.Msg)
	})

	t.Run("garbage token", func(t *testing.T) {
		recorder := doRequest(t, router, http.MethodGet, "/profile", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)

		var resp MessageResponse
		decodeBody(t, recorder, &resp)
		assert.Equal(t, "Invalid token", resp.Msg)
	})

	t.Run("foreign secret", func(t *testing.T) {
		forged, err := issueToken(types.User{ID: user.ID, Email: user.Email}, []byte("other-secret"), time.Hour)
		require.NoError(t, err)

		recorder := doRequest(t, router, http.MethodGet, "/profile", forged, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := issueToken(types.User{ID: user.ID, Email: user.Email}, []byte(testSecret), -time.Minute)
		require.NoError(t, err)

		recorder := doRequest(t, router, http.MethodGet, "/profile", expired, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestTokenCarriesIdentityAndExpiry(t *testing.T) {
	user := types.User{ID: uuid.New(), Email: "a@x.com"}

	tokenString, err := issueToken(user, []byte(testSecret), defaultTokenTTL)
	require.NoError(t, err)

	identity, err := parseToken(tokenString, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, user.Email, identity.Email)

	_, err = parseToken(tokenString, []byte("other-secret"))
	assert.Error(t, err)
}
