package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func entry(i int, handled bool) Entry {
	return Entry{
		Timestamp: time.Unix(int64(i), 0).UTC(),
		Kind:      fmt.Sprintf("kind-%d", i%3),
		Data:      []byte(fmt.Sprintf(`{"i":%d}`, i)),
		Handled:   handled,
	}
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	for _, n := range []int{0, 1, 50, 100} {
		s := New(DefaultCapacity)
		for i := 0; i < n; i++ {
			s.Append(entry(i, true))
		}

		all := s.All()
		require.Len(t, all, n)
		for i, e := range all {
			require.Equal(t, entry(i, true), e)
		}
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	s := New(DefaultCapacity)
	for i := 1; i <= 250; i++ {
		s.Append(entry(i, i%2 == 0))
		require.LessOrEqual(t, s.Len(), DefaultCapacity)
	}

	all := s.All()
	require.Len(t, all, 100)
	for i, e := range all {
		require.Equal(t, entry(151+i, (151+i)%2 == 0), e)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	s := New(2)
	s.Append(entry(1, true))

	all := s.All()
	all[0].Kind = "mutated"

	require.Equal(t, "kind-1", s.All()[0].Kind)
}

func TestLast(t *testing.T) {
	s := New(10)
	for i := 0; i < 5; i++ {
		s.Append(entry(i, true))
	}

	require.Equal(t, []Entry{entry(3, true), entry(4, true)}, s.Last(2))
	require.Len(t, s.Last(50), 5)
	require.Empty(t, s.Last(-1))
}

func TestStats(t *testing.T) {
	s := New(DefaultCapacity)

	stats := s.Stats()
	require.Equal(t, 0, stats.Total)
	require.Equal(t, 0.0, stats.SuccessRate)
	require.Empty(t, stats.PerKind)

	s.Append(Entry{Kind: "GotoPage", Handled: true})
	s.Append(Entry{Kind: "GotoPage", Handled: true})
	s.Append(Entry{Kind: "Log", Handled: true})
	s.Append(Entry{Kind: "Bogus", Handled: false})

	stats = s.Stats()
	require.Equal(t, 4, stats.Total)
	require.Equal(t, 3, stats.Handled)
	require.Equal(t, 1, stats.Unhandled)
	require.Equal(t, stats.Total, stats.Handled+stats.Unhandled)
	require.Equal(t, map[string]int{"GotoPage": 2, "Log": 1, "Bogus": 1}, stats.PerKind)
	require.InDelta(t, 75.0, stats.SuccessRate, 1e-9)
}

func TestClear(t *testing.T) {
	s := New(DefaultCapacity)
	for i := 0; i < 10; i++ {
		s.Append(entry(i, i%2 == 0))
	}

	s.Clear()

	require.Empty(t, s.All())
	stats := s.Stats()
	require.Equal(t, 0, stats.Total)
	require.Equal(t, 0, stats.Handled)
	require.Equal(t, 0, stats.Unhandled)
	require.Equal(t, 0.0, stats.SuccessRate)
	require.Empty(t, stats.PerKind)

	s.Append(entry(99, true))
	require.Len(t, s.All(), 1)
}

func TestNewDefaultsCapacity(t *testing.T) {
	require.Equal(t, DefaultCapacity, New(0).Capacity())
	require.Equal(t, 5, New(5).Capacity())
	require.Equal(t, DefaultCapacity, New(150).Capacity())

	s := New(150)
	for i := 0; i < 150; i++ {
		s.Append(Entry{Kind: "Log", Handled: true})
	}
	require.Equal(t, DefaultCapacity, s.Len())
}
