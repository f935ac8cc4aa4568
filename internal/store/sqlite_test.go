package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-scraper/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, NewRun{Query: "dentiste fes", BusinessType: "dentiste", Location: "fes", MaxResults: 20})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "dentiste fes", got.Query)
	assert.Equal(t, 20, got.MaxResults)
	assert.Nil(t, got.CompletedAt)
	assert.Empty(t, got.Records)

	records := []model.BusinessRecord{
		{Name: "Cabinet Atlas", Phone: "+212535621100", Emails: []string{"contact@atlas.ma"}, Address: "Rue Talaa 12, Fès"},
		{Name: "Pharmacie Nour", Emails: []string{}, Address: "fes"},
	}
	require.NoError(t, st.CompleteRun(ctx, run.ID, records))

	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 2, got.TotalResults)
	assert.Equal(t, records, got.Records)
	require.NotNil(t, got.CompletedAt)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, NewRun{Query: "hotel rabat", BusinessType: "hotel", Location: "rabat"})
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, "discover: blocked"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "discover: blocked", got.Error)
}

func TestSQLite_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "missing")
	assert.True(t, eris.Is(err, ErrNotFound))

	err = st.CompleteRun(ctx, "missing", nil)
	assert.True(t, eris.Is(err, ErrNotFound))

	err = st.FailRun(ctx, "missing", "x")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NotNil(t, runs)

	a, err := st.CreateRun(ctx, NewRun{Query: "dentiste fes", BusinessType: "dentiste", Location: "fes"})
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, NewRun{Query: "hotel fes", BusinessType: "hotel", Location: "fes"})
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, NewRun{Query: "hotel rabat", BusinessType: "hotel", Location: "rabat"})
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, a.ID, nil))

	runs, err = st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, a.ID, runs[0].ID)

	runs, err = st.ListRuns(ctx, RunFilter{BusinessType: "hotel", Location: "fes"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "hotel fes", runs[0].Query)

	runs, err = st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = st.ListRuns(ctx, RunFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordOutcome(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	records := []model.BusinessRecord{{Name: "Riad Fes", Emails: []string{}}}

	done, err := st.CreateRun(ctx, NewRun{Query: "riad fes"})
	require.NoError(t, err)
	require.NoError(t, RecordOutcome(ctx, st, done.ID, records, nil))
	got, err := st.GetRun(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 1, got.TotalResults)

	failed, err := st.CreateRun(ctx, NewRun{Query: "riad fes"})
	require.NoError(t, err)
	require.NoError(t, RecordOutcome(ctx, st, failed.ID, nil, eris.New("discover: blocked")))
	got, err = st.GetRun(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Contains(t, got.Error, "discover: blocked")
}

func TestRecordOutcome_CancelledContext(t *testing.T) {
	st := newTestSQLiteStore(t)
	run, err := st.CreateRun(context.Background(), NewRun{Query: "riad fes"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The write succeeds on a cancelled context and the run is not complete.
	require.NoError(t, RecordOutcome(ctx, st, run.ID, []model.BusinessRecord{{Name: "Riad Fes"}}, nil))

	got, err := st.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Contains(t, got.Error, "interrupted")
	assert.Contains(t, got.Error, "1 records kept")
	assert.NotNil(t, got.CompletedAt)
}
