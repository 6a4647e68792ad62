package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alenva214/Space-app/internal/user"
)

type memUserRepo struct {
	users  map[string]*user.User
	nextID uint
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*user.User{}, nextID: 1}
}

func (r *memUserRepo) Create(u *user.User) error {
	u.ID = r.nextID
	r.nextID++
	r.users[u.Username] = u
	return nil
}

func (r *memUserRepo) FindByID(id uint) (*user.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByUsername(username string) (*user.User, error) {
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByEmail(email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func newAuthApp(t *testing.T) (*fiber.App, *memUserRepo) {
	t.Helper()
	repo := newMemUserRepo()
	svc, err := user.NewService("test-secret")
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/register", Register(repo, svc))
	app.Post("/login", Login(repo, svc))
	app.Get("/logout", Logout)
	return app, repo
}

func TestRegister(t *testing.T) {
	app, repo := newAuthApp(t)

	body, _ := json.Marshal(map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	req := httptest.NewRequest("POST", "/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	u, err := repo.FindByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.PasswordHash)

	// session cookie set
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	app, repo := newAuthApp(t)
	repo.Create(&user.User{Username: "alice", Email: "a@example.com", PasswordHash: "x"})

	body, _ := json.Marshal(map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	})
	req := httptest.NewRequest("POST", "/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRegister_MissingFields(t *testing.T) {
	app, _ := newAuthApp(t)

	body, _ := json.Marshal(map[string]string{"username": "alice"})
	req := httptest.NewRequest("POST", "/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app, repo := newAuthApp(t)
	svc, _ := user.NewService("test-secret")
	hash, _ := svc.HashPassword("secret123")
	repo.Create(&user.User{Username: "alice", Email: "a@example.com", PasswordHash: hash})

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "secret123"})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "session_token", cookies[0].Name)
}

func TestLogin_WrongPassword(t *testing.T) {
	app, repo := newAuthApp(t)
	svc, _ := user.NewService("test-secret")
	hash, _ := svc.HashPassword("secret123")
	repo.Create(&user.User{Username: "alice", Email: "a@example.com", PasswordHash: hash})

	for _, creds := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "secret123"},
	} {
		body, _ := json.Marshal(creds)
		req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	app, _ := newAuthApp(t)

	req := httptest.NewRequest("GET", "/logout", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}
