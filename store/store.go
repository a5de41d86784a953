// Package store persists users, groups, messages and bearer tokens. Two
// implementations share the Store interface: SQLite for the server binary
// and Memory for tests and local development.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/Swatijha060/chatly/domain"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExists             = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyMember      = errors.New("already a member")
	ErrNotMember          = errors.New("not a member")
)

type Store interface {
	CreateUser(username, email, password string, isAdmin bool) (domain.User, error)
	UserByCredentials(email, password string) (domain.User, error)
	UserByID(id string) (domain.User, error)
	IssueToken(userID string) (string, error)
	UserByToken(token string) (domain.User, bool)

	CreateGroup(name, description, adminID string) (domain.Group, error)
	Groups() ([]domain.Group, error)
	GroupByID(id string) (domain.Group, error)
	AddMember(groupID, userID string) error
	RemoveMember(groupID, userID string) error

	CreateMessage(senderID, groupID, content string) (domain.Message, error)
	MessagesByGroup(groupID string) ([]domain.Message, error)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func verifyPassword(passwordHash, password string) bool {
	if passwordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
}

func newToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "t_" + hex.EncodeToString(b[:]), nil
}
