package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeedAddPrependsNewestFirst(t *testing.T) {
	f := NewFeed()
	f.Add(TypeInfo, "Hoş geldiniz", "Hesabınız oluşturuldu.")
	f.Add(TypeSuccess, "Gelir eklendi", "5.000 USD kaydedildi.")

	all := f.All()
	require.Len(t, all, 2)
	require.Equal(t, "Gelir eklendi", all[0].Title)
	require.Equal(t, "Hoş geldiniz", all[1].Title)
	require.Greater(t, all[0].ID, all[1].ID)
}

func TestFeedUnreadCountAndMarkAllRead(t *testing.T) {
	f := NewFeed()
	f.Add(TypeInfo, "a", "a")
	f.Add(TypeWarning, "b", "b")
	require.Equal(t, 2, f.UnreadCount())

	f.MarkAllRead()
	require.Equal(t, 0, f.UnreadCount())
	for _, n := range f.All() {
		require.True(t, n.Read)
	}

	f.Add(TypeInfo, "c", "c")
	require.Equal(t, 1, f.UnreadCount())
}

func TestFeedIDsMonotonicWithinSameMillisecond(t *testing.T) {
	f := NewFeed()
	fixed := time.Date(2025, 11, 5, 10, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }

	first := f.Add(TypeInfo, "a", "a")
	second := f.Add(TypeInfo, "b", "b")
	require.Greater(t, second.ID, first.ID)
}

func TestFeedSetIsolatesUsers(t *testing.T) {
	set := NewFeedSet()
	set.For(1).Add(TypeInfo, "a", "a")

	require.Len(t, set.For(1).All(), 1)
	require.Empty(t, set.For(2).All())
	require.Same(t, set.For(1), set.For(1))
}
