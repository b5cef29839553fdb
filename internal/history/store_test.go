package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/build"
)

func result(id, site string, outcome build.Outcome) *build.Result {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &build.Result{
		BuildID: id,
		Site:    site,
		Trigger: build.TriggerChange,
		Start:   start,
		End:     start.Add(1500 * time.Millisecond),
		Stage:   build.StageDone,
		StageDurations: map[build.StageName]time.Duration{
			build.StageRendering: 800 * time.Millisecond,
		},
		Outcome:   outcome,
		Pages:     3,
		Published: outcome == build.OutcomeSuccess,
	}
}

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := t.Context()
	require.NoError(t, store.RecordBuild(ctx, result("b1", "example.com", build.OutcomeSuccess)))

	failed := result("b2", "example.com", build.OutcomeFailed)
	failed.Stage = build.StageComposing
	failed.Err = errors.New("cannot read article source")
	require.NoError(t, store.RecordBuild(ctx, failed))
	require.NoError(t, store.RecordBuild(ctx, result("b3", "other.org", build.OutcomeWarning)))

	all, err := store.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b3", all[0].BuildID)

	site, err := store.Recent(ctx, "example.com", 10)
	require.NoError(t, err)
	require.Len(t, site, 2)
	assert.Equal(t, "b2", site[0].BuildID)
	assert.Equal(t, "failed", site[0].Outcome)
	assert.Equal(t, "composing", site[0].Stage)
	assert.Equal(t, "cannot read article source", site[0].Error)

	ok := site[1]
	assert.True(t, ok.Published)
	assert.Equal(t, 3, ok.Pages)
	assert.Equal(t, 1500*time.Millisecond, ok.Duration)
	assert.Equal(t, 800*time.Millisecond, ok.StageDurations["rendering"])
	assert.True(t, ok.Start.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordBuild(t.Context(), result("b1", "example.com", build.OutcomeSuccess)))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	recs, err := store.Recent(t.Context(), "", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b1", recs[0].BuildID)
}

func TestSQLiteStore_DuplicateBuildID(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.RecordBuild(t.Context(), result("same", "example.com", build.OutcomeSuccess)))
	require.Error(t, store.RecordBuild(t.Context(), result("same", "example.com", build.OutcomeSuccess)))
}
