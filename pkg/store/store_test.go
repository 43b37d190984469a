package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasronge/ptclisp/pkg/ptclisp"
	"github.com/andreasronge/ptclisp/pkg/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "turns.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListTurns(t *testing.T) {
	s := openStore(t)

	step := ptclisp.Run("(def a 1) (+ a 1)", ptclisp.Options{Journal: map[string]any{}})
	require.Nil(t, step.Fail)

	require.NoError(t, s.SaveTurn("sess", step))
	require.NoError(t, s.SaveTurn("sess", step))

	count, err := s.TurnCount("sess")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	turns, err := s.ListTurns("sess")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, 1, turns[0].Turn)
	assert.Equal(t, 2, turns[1].Turn)
	assert.Equal(t, step.ID, turns[0].StepID)
	assert.Empty(t, turns[0].FailReason)
}

func TestJournalRoundTripThroughStore(t *testing.T) {
	s := openStore(t)

	calls := 0
	tools := map[string]any{
		"fetch": func(_ map[string]any) (any, error) {
			calls++
			return 42, nil
		},
	}

	first := ptclisp.Run(`(task "k" (tool/fetch {}))`, ptclisp.Options{
		Tools:   tools,
		Journal: map[string]any{},
	})
	require.Nil(t, first.Fail)
	require.NoError(t, s.SaveTurn("sess", first))

	journal, err := s.LoadJournal("sess")
	require.NoError(t, err)
	require.Contains(t, journal, "k")

	// Replaying through the persisted journal skips the tool entirely.
	second := ptclisp.Run(`(task "k" (tool/fetch {}))`, ptclisp.Options{
		Tools:   tools,
		Journal: journal,
	})
	require.Nil(t, second.Fail)
	assert.Equal(t, 1, calls)
}

func TestLoadJournalEmptySession(t *testing.T) {
	s := openStore(t)
	journal, err := s.LoadJournal("nope")
	require.NoError(t, err)
	assert.Empty(t, journal)
}

func TestMemoryPersistence(t *testing.T) {
	s := openStore(t)

	first := ptclisp.Run("(defn twice [x] (* x 2))", ptclisp.Options{})
	require.Nil(t, first.Fail)
	require.NoError(t, s.SaveTurn("sess", first))

	memorySrc, err := s.LoadMemory("sess")
	require.NoError(t, err)
	require.NotEmpty(t, memorySrc)

	// The stored export is runnable source that rebuilds the namespace.
	next := ptclisp.Run(memorySrc+" (twice 21)", ptclisp.Options{})
	require.Nil(t, next.Fail)
	assert.Equal(t, int64(42), next.Return)
}

func TestLoadMemoryEmptySession(t *testing.T) {
	s := openStore(t)
	src, err := s.LoadMemory("nope")
	require.NoError(t, err)
	assert.Empty(t, src)
}
