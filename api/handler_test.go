package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swatijha060/chatly/auth"
	"github.com/Swatijha060/chatly/domain"
	"github.com/Swatijha060/chatly/store"
)

type testEnv struct {
	mux        *http.ServeMux
	store      *store.Memory
	adminToken string
	userToken  string
	admin      domain.User
	user       domain.User
}

// newTestEnv wires the handlers the way main does, with one admin and one
// regular user already registered.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := store.NewMemory()
	svc := &auth.Service{Store: mem}
	h := &Handler{Store: mem}

	admin, err := mem.CreateUser("admin", "admin@example.com", "secret", true)
	require.NoError(t, err)
	adminToken, err := mem.IssueToken(admin.ID)
	require.NoError(t, err)

	user, err := mem.CreateUser("alice", "alice@example.com", "secret", false)
	require.NoError(t, err)
	userToken, err := mem.IssueToken(user.ID)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/groups", svc.RequireAdmin(h.CreateGroup))
	mux.HandleFunc("GET /api/groups", svc.RequireUser(h.ListGroups))
	mux.HandleFunc("GET /api/groups/{groupId}", svc.RequireUser(h.GetGroup))
	mux.HandleFunc("POST /api/groups/{groupId}/join", svc.RequireUser(h.JoinGroup))
	mux.HandleFunc("POST /api/groups/{groupId}/leave", svc.RequireUser(h.LeaveGroup))
	mux.HandleFunc("POST /api/messages", svc.RequireUser(h.SendMessage))
	mux.HandleFunc("GET /api/messages/{groupId}", svc.RequireUser(h.GroupMessages))

	return &testEnv{mux: mux, store: mem, adminToken: adminToken, userToken: userToken, admin: admin, user: user}
}

func (e *testEnv) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/groups", env.adminToken,
		`{"name":"general","description":"general chatter"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var group domain.Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &group))
	assert.Equal(t, "general", group.Name)
	assert.Equal(t, env.admin.ID, group.AdminID)
	assert.Equal(t, []string{env.admin.ID}, group.Members)

	// Non-admins cannot create groups.
	rec = env.do(t, http.MethodPost, "/api/groups", env.userToken, `{"name":"mine"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/groups", env.adminToken, `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinAndLeaveGroup(t *testing.T) {
	env := newTestEnv(t)
	group, err := env.store.CreateGroup("general", "", env.admin.ID)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/groups/"+group.ID+"/join", env.userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/groups/"+group.ID+"/join", env.userToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/groups/"+group.ID, env.userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.ElementsMatch(t, []string{env.admin.ID, env.user.ID}, got.Members)

	rec = env.do(t, http.MethodPost, "/api/groups/"+group.ID+"/leave", env.userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/groups/"+group.ID+"/leave", env.userToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/groups/missing/join", env.userToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListGroups(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/groups", env.userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	_, err := env.store.CreateGroup("general", "", env.admin.ID)
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/api/groups", env.userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []domain.Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	assert.Len(t, groups, 1)
}

func TestMessages(t *testing.T) {
	env := newTestEnv(t)
	group, err := env.store.CreateGroup("general", "", env.admin.ID)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/messages", env.userToken,
		`{"content":"hi","groupId":"`+group.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var msg domain.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, env.user.ID, msg.Sender.ID)
	assert.Equal(t, group.ID, msg.GroupID)

	rec = env.do(t, http.MethodPost, "/api/messages", env.userToken, `{"content":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/messages", env.userToken,
		`{"content":"hi","groupId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/messages/"+group.ID, env.userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []domain.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)

	rec = env.do(t, http.MethodGet, "/api/messages/missing", env.userToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
