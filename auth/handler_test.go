package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swatijha060/chatly/domain"
	"github.com/Swatijha060/chatly/store"
)

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterHandler(t *testing.T) {
	svc := &Service{Store: store.NewMemory()}

	rec := postJSON(t, svc.RegisterHandler, "/api/users/register",
		`{"username":"alice","email":"alice@example.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID    string `json:"_id"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.NotEmpty(t, resp.Token)

	rec = postJSON(t, svc.RegisterHandler, "/api/users/register",
		`{"username":"alice","email":"alice@example.com","password":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, svc.RegisterHandler, "/api/users/register", `{"username":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, svc.RegisterHandler, "/api/users/register", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	svc := &Service{Store: store.NewMemory()}
	_, err := svc.Store.CreateUser("bob", "bob@example.com", "secret", false)
	require.NoError(t, err)

	rec := postJSON(t, svc.LoginHandler, "/api/users/login",
		`{"email":"bob@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bob", resp.Username)
	assert.NotEmpty(t, resp.Token)

	rec = postJSON(t, svc.LoginHandler, "/api/users/login",
		`{"email":"bob@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUser(t *testing.T) {
	mem := store.NewMemory()
	svc := &Service{Store: mem}
	user, err := mem.CreateUser("carol", "carol@example.com", "secret", false)
	require.NoError(t, err)
	token, err := mem.IssueToken(user.ID)
	require.NoError(t, err)

	handler := svc.RequireUser(func(w http.ResponseWriter, _ *http.Request, u domain.User) {
		assert.Equal(t, user.ID, u.ID)
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer t_bogus")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	mem := store.NewMemory()
	svc := &Service{Store: mem}
	user, err := mem.CreateUser("dave", "dave@example.com", "secret", false)
	require.NoError(t, err)
	token, err := mem.IssueToken(user.ID)
	require.NoError(t, err)

	handler := svc.RequireAdmin(func(w http.ResponseWriter, _ *http.Request, _ domain.User) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/groups", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
