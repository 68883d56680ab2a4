package processors

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/username/istisna/backend/src/models"
)

func entry(id int64, tryValue float64) models.IncomeEntry {
	return models.IncomeEntry{
		ID:           id,
		Date:         "05.11.2025",
		Description:  "YouTube reklam geliri",
		Amount:       tryValue / 30.50,
		Currency:     "USD",
		ExchangeRate: 30.50,
		TryValue:     tryValue,
	}
}

func TestLedgerTotal(t *testing.T) {
	l := NewLedger()
	for i, v := range []float64{152500, 264000, 31000} {
		require.NoError(t, l.Add(entry(int64(i+1), v)))
	}
	require.Equal(t, 447500.0, l.Total())
}

func TestLedgerNewestFirst(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add(entry(1, 1000)))
	require.NoError(t, l.Add(entry(2, 2000)))
	require.NoError(t, l.Add(entry(3, 3000)))

	entries := l.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, int64(3), entries[0].ID)
	require.Equal(t, int64(2), entries[1].ID)
	require.Equal(t, int64(1), entries[2].ID)
}

func TestLedgerRejectsNonPositiveValue(t *testing.T) {
	l := NewLedger()
	require.ErrorIs(t, l.Add(entry(1, 0)), ErrInvariantViolation)
	require.ErrorIs(t, l.Add(entry(2, -500)), ErrInvariantViolation)
	require.Equal(t, 0.0, l.Total())
	require.Empty(t, l.Entries())
}

func TestLedgerSnapshotIsDetached(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add(entry(1, 1000)))
	snapshot := l.Entries()
	snapshot[0].TryValue = 999999
	require.Equal(t, 1000.0, l.Entries()[0].TryValue)
}

func TestLedgerNextIDMonotonic(t *testing.T) {
	l := NewLedger()
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := l.NextID()
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestLedgerSetIsolatesUsers(t *testing.T) {
	set := NewLedgerSet()
	require.NoError(t, set.For(1).Add(entry(1, 152500)))
	require.Equal(t, 152500.0, set.For(1).Total())
	require.Equal(t, 0.0, set.For(2).Total())
	require.Same(t, set.For(1), set.For(1))
}
