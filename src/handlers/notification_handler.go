package handlers

import (
	"net/http"

	"github.com/username/istisna/backend/src/notifications"
	"github.com/username/istisna/backend/src/utils"
)

type NotificationHandler struct {
	feeds *notifications.FeedSet
}

func NewNotificationHandler(feeds *notifications.FeedSet) *NotificationHandler {
	return &NotificationHandler{feeds: feeds}
}

func (h *NotificationHandler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	feed := h.feeds.For(userID)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": feed.All(),
		"unread":        feed.UnreadCount(),
	})
}

func (h *NotificationHandler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.feeds.For(userID).MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}
