package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Swatijha060/chatly/domain"
)

// Memory is an in-memory Store. State is lost on restart.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	passwords map[string]string // user id -> bcrypt hash
	tokens    map[string]string // token -> user id
	groups    map[string]domain.Group
	messages  map[string][]domain.Message // group id -> ascending by creation
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]domain.User),
		passwords: make(map[string]string),
		tokens:    make(map[string]string),
		groups:    make(map[string]domain.Group),
		messages:  make(map[string][]domain.Message),
	}
}

func (m *Memory) CreateUser(username, email, password string, isAdmin bool) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return domain.User{}, ErrInvalidInput
	}

	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return domain.User{}, ErrExists
		}
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	}
	m.users[user.ID] = user
	m.passwords[user.ID] = hash
	return user, nil
}

func (m *Memory) UserByCredentials(email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			if !verifyPassword(m.passwords[u.ID], password) {
				return domain.User{}, ErrInvalidCredentials
			}
			return u, nil
		}
	}
	return domain.User{}, ErrInvalidCredentials
}

func (m *Memory) UserByID(id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) IssueToken(userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return "", ErrNotFound
	}
	m.tokens[token] = userID
	return token, nil
}

func (m *Memory) UserByToken(token string) (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userID, ok := m.tokens[token]
	if !ok {
		return domain.User{}, false
	}
	user, ok := m.users[userID]
	return user, ok
}

func (m *Memory) CreateGroup(name, description, adminID string) (domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Group{}, ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[adminID]; !ok {
		return domain.Group{}, ErrNotFound
	}

	group := domain.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		AdminID:     adminID,
		Members:     []string{adminID},
		CreatedAt:   time.Now().UTC(),
	}
	m.groups[group.ID] = group
	return group, nil
}

func (m *Memory) Groups() ([]domain.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Group, 0, len(m.groups))
	for _, g := range m.groups {
		g.Members = append([]string(nil), g.Members...)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) GroupByID(id string) (domain.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	group, ok := m.groups[id]
	if !ok {
		return domain.Group{}, ErrNotFound
	}
	group.Members = append([]string(nil), group.Members...)
	return group, nil
}

func (m *Memory) AddMember(groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range group.Members {
		if id == userID {
			return ErrAlreadyMember
		}
	}
	group.Members = append(group.Members, userID)
	m.groups[groupID] = group
	return nil
}

func (m *Memory) RemoveMember(groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	for i, id := range group.Members {
		if id == userID {
			group.Members = append(group.Members[:i], group.Members[i+1:]...)
			m.groups[groupID] = group
			return nil
		}
	}
	return ErrNotMember
}

func (m *Memory) CreateMessage(senderID, groupID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" || groupID == "" {
		return domain.Message{}, ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sender, ok := m.users[senderID]
	if !ok {
		return domain.Message{}, ErrNotFound
	}
	if _, ok := m.groups[groupID]; !ok {
		return domain.Message{}, ErrNotFound
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		GroupID:   groupID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	m.messages[groupID] = append(m.messages[groupID], msg)
	return msg, nil
}

func (m *Memory) MessagesByGroup(groupID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.groups[groupID]; !ok {
		return nil, ErrNotFound
	}
	return append([]domain.Message(nil), m.messages[groupID]...), nil
}
