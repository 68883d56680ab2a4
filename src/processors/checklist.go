package processors

import (
	"errors"
	"sync"
	"time"

	"github.com/username/istisna/backend/src/models"
	"github.com/username/istisna/backend/src/utils"
)

var ErrTaskNotFound = errors.New("task not found")

// PetitionTaskID is the checklist step carrying the petition download action.
// The download is available regardless of the task's completion state and does
// not transition it.
const PetitionTaskID = 2

var defaultTasks = []models.Task{
	{
		ID:      1,
		Text:    "İstisnaya Özel Banka Hesabı Aç",
		Details: "İstisna kapsamındaki tüm hasılat münhasıran bu hesap üzerinden tahsil edilmeli.",
	},
	{
		ID:      2,
		Text:    "Vergi Dairesine \"İstisna Belgesi\" Başvurusu Yap",
		Details: "Bu belge ile banka hesabınızı ve istisna durumunuzu bildirmeniz gerekiyor.",
	},
	{
		ID:      3,
		Text:    "Mali Müşavirinize Bilgi Verin",
		Details: "Stopaj ve (gerekirse) KDV-2 beyanları için bilgilendirme yapın.",
	},
}

// Checklist tracks the fixed onboarding steps. Completion is monotonic: a
// completed task never goes back to pending, and task order never changes.
type Checklist struct {
	mu    sync.Mutex
	tasks []models.Task
	now   func() time.Time
}

func NewChecklist() *Checklist {
	tasks := make([]models.Task, len(defaultTasks))
	copy(tasks, defaultTasks)
	return &Checklist{tasks: tasks, now: time.Now}
}

// Tasks returns the checklist in its fixed order.
func (c *Checklist) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Complete marks a task completed, stamping the completion date on the first
// transition only. Completing an already-completed task is a no-op that keeps
// the original date.
func (c *Checklist) Complete(id int) (models.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID != id {
			continue
		}
		if !c.tasks[i].Completed {
			c.tasks[i].Completed = true
			c.tasks[i].CompletedDate = utils.FormatDate(c.now())
		}
		return c.tasks[i], nil
	}
	return models.Task{}, ErrTaskNotFound
}

// ChecklistSet hands out one checklist per user id.
type ChecklistSet struct {
	mu         sync.Mutex
	checklists map[int64]*Checklist
}

func NewChecklistSet() *ChecklistSet {
	return &ChecklistSet{checklists: make(map[int64]*Checklist)}
}

func (s *ChecklistSet) For(userID int64) *Checklist {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.checklists[userID]
	if !ok {
		c = NewChecklist()
		s.checklists[userID] = c
	}
	return c
}
