// Package notifications keeps an in-memory, per-user notification feed.
// Entries are append-only and newest-first; the only mutation besides
// appending is marking everything read.
package notifications

import (
	"sync"
	"time"

	"github.com/username/istisna/backend/src/models"
)

const (
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeInfo    = "info"
)

// Feed is a single user's notification list.
type Feed struct {
	mu     sync.Mutex
	items  []models.Notification
	lastID int64
	now    func() time.Time
}

func NewFeed() *Feed {
	return &Feed{now: time.Now}
}

// Add prepends a notification and returns a copy of it.
func (f *Feed) Add(typ, title, message string) models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.now().UnixMilli()
	if id <= f.lastID {
		id = f.lastID + 1
	}
	f.lastID = id

	n := models.Notification{
		ID:        id,
		Title:     title,
		Message:   message,
		Read:      false,
		Timestamp: f.now().Format(time.RFC3339),
		Type:      typ,
	}
	f.items = append([]models.Notification{n}, f.items...)
	return n
}

// All returns a detached snapshot, newest first.
func (f *Feed) All() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.items))
	copy(out, f.items)
	return out
}

// UnreadCount reports how many entries have not been marked read.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAllRead flips every entry to read.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		f.items[i].Read = true
	}
}

// FeedSet holds one Feed per user.
type FeedSet struct {
	mu    sync.Mutex
	feeds map[int64]*Feed
}

func NewFeedSet() *FeedSet {
	return &FeedSet{feeds: make(map[int64]*Feed)}
}

func (s *FeedSet) For(userID int64) *Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feeds[userID]
	if !ok {
		f = NewFeed()
		s.feeds[userID] = f
	}
	return f
}
