package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedChecklist(t *testing.T, at string) *Checklist {
	t.Helper()
	ts, err := time.Parse("02.01.2006", at)
	require.NoError(t, err)
	c := NewChecklist()
	c.now = func() time.Time { return ts }
	return c
}

func TestChecklistComplete(t *testing.T) {
	c := fixedChecklist(t, "02.11.2025")

	task, err := c.Complete(2)
	require.NoError(t, err)
	require.True(t, task.Completed)
	require.Equal(t, "02.11.2025", task.CompletedDate)
}

func TestChecklistCompletionIsMonotonic(t *testing.T) {
	c := fixedChecklist(t, "02.11.2025")

	_, err := c.Complete(2)
	require.NoError(t, err)

	// Re-completing later must keep the original completion date.
	c.now = func() time.Time { return time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC) }
	task, err := c.Complete(2)
	require.NoError(t, err)
	require.True(t, task.Completed)
	require.Equal(t, "02.11.2025", task.CompletedDate)
}

func TestChecklistOrderFixed(t *testing.T) {
	c := fixedChecklist(t, "02.11.2025")
	_, err := c.Complete(3)
	require.NoError(t, err)

	tasks := c.Tasks()
	require.Len(t, tasks, 3)
	for i, task := range tasks {
		require.Equal(t, i+1, task.ID)
	}
}

func TestChecklistUnknownTask(t *testing.T) {
	c := NewChecklist()
	_, err := c.Complete(42)
	require.ErrorIs(t, err, ErrTaskNotFound)
}
