package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Swatijha060/chatly/domain"
)

// SQLite is a database-backed Store.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at path and runs the
// schema migrations.
func OpenSQLite(path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tokens (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			admin_id TEXT NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id TEXT NOT NULL REFERENCES chat_groups(id),
			user_id TEXT NOT NULL REFERENCES users(id),
			joined_at TEXT NOT NULL,
			PRIMARY KEY (group_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL REFERENCES users(id),
			group_id TEXT NOT NULL REFERENCES chat_groups(id),
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_group_created
			ON messages(group_id, created_at)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// timeLayout keeps fractional seconds fixed-width so the stored text sorts
// chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *SQLite) CreateUser(username, email, password string, isAdmin bool) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return domain.User{}, ErrInvalidInput
	}

	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.Exec(
		`INSERT INTO users (id, username, email, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, hash, boolToInt(user.IsAdmin), encodeTime(user.CreatedAt),
	)
	if isUniqueViolation(err) {
		return domain.User{}, ErrExists
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *SQLite) UserByCredentials(email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := s.db.QueryRow(
		`SELECT id, username, email, password_hash, is_admin, created_at FROM users WHERE email = ?`, email)

	var user domain.User
	var hash, createdAt string
	var isAdmin int
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &hash, &isAdmin, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("user by credentials: %w", err)
	}
	if !verifyPassword(hash, password) {
		return domain.User{}, ErrInvalidCredentials
	}
	user.IsAdmin = isAdmin != 0
	user.CreatedAt = decodeTime(createdAt)
	return user, nil
}

func (s *SQLite) UserByID(id string) (domain.User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, username, email, is_admin, created_at FROM users WHERE id = ?`, id))
}

func (s *SQLite) scanUser(row *sql.Row) (domain.User, error) {
	var user domain.User
	var createdAt string
	var isAdmin int
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &isAdmin, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.IsAdmin = isAdmin != 0
	user.CreatedAt = decodeTime(createdAt)
	return user, nil
}

func (s *SQLite) IssueToken(userID string) (string, error) {
	if _, err := s.UserByID(userID); err != nil {
		return "", err
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		`INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, userID, encodeTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *SQLite) UserByToken(token string) (domain.User, bool) {
	user, err := s.scanUser(s.db.QueryRow(
		`SELECT u.id, u.username, u.email, u.is_admin, u.created_at
		 FROM tokens t JOIN users u ON u.id = t.user_id
		 WHERE t.token = ?`, token))
	if err != nil {
		return domain.User{}, false
	}
	return user, true
}

func (s *SQLite) CreateGroup(name, description, adminID string) (domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Group{}, ErrInvalidInput
	}
	if _, err := s.UserByID(adminID); err != nil {
		return domain.Group{}, err
	}

	group := domain.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		AdminID:     adminID,
		Members:     []string{adminID},
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO chat_groups (id, name, description, admin_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.AdminID, encodeTime(group.CreatedAt),
	)
	if err != nil {
		return domain.Group{}, fmt.Errorf("create group: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
		group.ID, adminID, encodeTime(group.CreatedAt),
	)
	if err != nil {
		return domain.Group{}, fmt.Errorf("create group admin member: %w", err)
	}
	return group, nil
}

func (s *SQLite) Groups() ([]domain.Group, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, admin_id, created_at FROM chat_groups ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var g domain.Group
		var createdAt string
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.AdminID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.CreatedAt = decodeTime(createdAt)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		members, err := s.membersOf(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Members = members
	}
	return out, nil
}

func (s *SQLite) GroupByID(id string) (domain.Group, error) {
	row := s.db.QueryRow(
		`SELECT id, name, description, admin_id, created_at FROM chat_groups WHERE id = ?`, id)

	var g domain.Group
	var createdAt string
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.AdminID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Group{}, ErrNotFound
		}
		return domain.Group{}, fmt.Errorf("group by id: %w", err)
	}
	g.CreatedAt = decodeTime(createdAt)

	members, err := s.membersOf(g.ID)
	if err != nil {
		return domain.Group{}, err
	}
	g.Members = members
	return g, nil
}

func (s *SQLite) membersOf(groupID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("group members: %w", err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (s *SQLite) AddMember(groupID, userID string) error {
	if _, err := s.GroupByID(groupID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
		groupID, userID, encodeTime(time.Now()),
	)
	if isUniqueViolation(err) {
		return ErrAlreadyMember
	}
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *SQLite) RemoveMember(groupID, userID string) error {
	if _, err := s.GroupByID(groupID); err != nil {
		return err
	}
	res, err := s.db.Exec(
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *SQLite) CreateMessage(senderID, groupID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" || groupID == "" {
		return domain.Message{}, ErrInvalidInput
	}
	sender, err := s.UserByID(senderID)
	if err != nil {
		return domain.Message{}, err
	}
	if _, err := s.GroupByID(groupID); err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		GroupID:   groupID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.Exec(
		`INSERT INTO messages (id, sender_id, group_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, senderID, groupID, msg.Content, encodeTime(msg.CreatedAt),
	)
	if err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

func (s *SQLite) MessagesByGroup(groupID string) ([]domain.Message, error) {
	if _, err := s.GroupByID(groupID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT m.id, m.group_id, m.content, m.created_at,
		        u.id, u.username, u.email, u.is_admin, u.created_at
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.group_id = ?
		 ORDER BY m.created_at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var msg domain.Message
		var msgCreated, userCreated string
		var isAdmin int
		if err := rows.Scan(
			&msg.ID, &msg.GroupID, &msg.Content, &msgCreated,
			&msg.Sender.ID, &msg.Sender.Username, &msg.Sender.Email, &isAdmin, &userCreated,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Sender.IsAdmin = isAdmin != 0
		msg.Sender.CreatedAt = decodeTime(userCreated)
		msg.CreatedAt = decodeTime(msgCreated)
		out = append(out, msg)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
