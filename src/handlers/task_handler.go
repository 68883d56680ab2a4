package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/notifications"
	"github.com/username/istisna/backend/src/processors"
	"github.com/username/istisna/backend/src/utils"
)

type TaskHandler struct {
	checklists *processors.ChecklistSet
	feeds      *notifications.FeedSet
}

func NewTaskHandler(checklists *processors.ChecklistSet, feeds *notifications.FeedSet) *TaskHandler {
	return &TaskHandler{checklists: checklists, feeds: feeds}
}

func (h *TaskHandler) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.checklists.For(userID).Tasks())
}

// CompleteTaskHandler marks a checklist step done. Re-completing a done step
// returns it unchanged.
func (h *TaskHandler) CompleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	taskID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	task, err := h.checklists.For(userID).Complete(taskID)
	if err != nil {
		if errors.Is(err, processors.ErrTaskNotFound) {
			utils.SendJSONError(w, "Task not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Task completion failed", "error", err, "userID", userID, "taskID", taskID)
		utils.SendJSONError(w, "Failed to complete task", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Task completed", "userID", userID, "taskID", task.ID)
	h.feeds.For(userID).Add(notifications.TypeSuccess, "Görev tamamlandı", task.Text)

	utils.WriteJSON(w, http.StatusOK, task)
}
