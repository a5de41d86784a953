// Package api implements the group and message CRUD endpoints. Realtime
// relay of a sent message is the client's job: it posts here first and then
// emits the socket event, so persistence failures surface before any relay.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Swatijha060/chatly/domain"
	"github.com/Swatijha060/chatly/internal/transport"
	"github.com/Swatijha060/chatly/store"
)

type Handler struct {
	Store store.Store
}

// CreateGroup handles POST /api/groups. Admin only; the creator becomes the
// group admin and its first member.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := transport.ReadJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := h.Store.CreateGroup(req.Name, req.Description, user.ID)
	if errors.Is(err, store.ErrInvalidInput) {
		transport.WriteError(w, http.StatusBadRequest, "Group name is required")
		return
	}
	if err != nil {
		slog.Error("create group failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	transport.WriteJSON(w, http.StatusCreated, group)
}

// ListGroups handles GET /api/groups.
func (h *Handler) ListGroups(w http.ResponseWriter, _ *http.Request, _ domain.User) {
	groups, err := h.Store.Groups()
	if err != nil {
		slog.Error("list groups failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	transport.WriteJSON(w, http.StatusOK, groups)
}

// GetGroup handles GET /api/groups/{groupId}.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request, _ domain.User) {
	group, err := h.Store.GroupByID(r.PathValue("groupId"))
	if errors.Is(err, store.ErrNotFound) {
		transport.WriteError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("get group failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	transport.WriteJSON(w, http.StatusOK, group)
}

// JoinGroup handles POST /api/groups/{groupId}/join.
func (h *Handler) JoinGroup(w http.ResponseWriter, r *http.Request, user domain.User) {
	err := h.Store.AddMember(r.PathValue("groupId"), user.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		transport.WriteError(w, http.StatusNotFound, "Group not found")
	case errors.Is(err, store.ErrAlreadyMember):
		transport.WriteError(w, http.StatusBadRequest, "Already a member")
	case err != nil:
		slog.Error("join group failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
	default:
		transport.WriteJSON(w, http.StatusOK, map[string]string{"message": "Joined group successfully"})
	}
}

// LeaveGroup handles POST /api/groups/{groupId}/leave.
func (h *Handler) LeaveGroup(w http.ResponseWriter, r *http.Request, user domain.User) {
	err := h.Store.RemoveMember(r.PathValue("groupId"), user.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		transport.WriteError(w, http.StatusNotFound, "Group not found")
	case errors.Is(err, store.ErrNotMember):
		transport.WriteError(w, http.StatusBadRequest, "Not a member of the group")
	case err != nil:
		slog.Error("leave group failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
	default:
		transport.WriteJSON(w, http.StatusOK, map[string]string{"message": "Left group successfully"})
	}
}

// SendMessage handles POST /api/messages.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req struct {
		Content string `json:"content"`
		GroupID string `json:"groupId"`
	}
	if err := transport.ReadJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" || req.GroupID == "" {
		transport.WriteError(w, http.StatusBadRequest, "Missing content or groupId")
		return
	}

	msg, err := h.Store.CreateMessage(user.ID, req.GroupID, req.Content)
	if errors.Is(err, store.ErrNotFound) {
		transport.WriteError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("send message failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error while sending message")
		return
	}

	transport.WriteJSON(w, http.StatusCreated, msg)
}

// GroupMessages handles GET /api/messages/{groupId}, ascending by creation
// time.
func (h *Handler) GroupMessages(w http.ResponseWriter, r *http.Request, _ domain.User) {
	msgs, err := h.Store.MessagesByGroup(r.PathValue("groupId"))
	if errors.Is(err, store.ErrNotFound) {
		transport.WriteError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("list messages failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error while fetching messages")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	transport.WriteJSON(w, http.StatusOK, msgs)
}
