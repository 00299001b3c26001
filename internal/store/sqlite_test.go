package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabzox/business-lead-finder/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusNormalizing, run.Status)

	summary := model.RunSummary{Input: 10, Dropped: 1, Duplicates: 2, Probed: 7, Scored: 7}
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStatusRanked, summary))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRanked, got.Status)
	assert.Equal(t, summary, got.Summary)
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)

	for _, status := range []model.RunStatus{
		model.RunStatusDeduplicating,
		model.RunStatusProbing,
		model.RunStatusScoring,
	} {
		require.NoError(t, st.UpdateRunStatus(ctx, run.ID, status))
		got, err := st.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	assert.Error(t, st.UpdateRunStatus(ctx, "nope", model.RunStatusProbing))
}

func TestSQLite_CompleteUnknownRun(t *testing.T) {
	st := newTestStore(t)
	err := st.CompleteRun(context.Background(), "nope", model.RunStatusRanked, model.RunSummary{})
	assert.Error(t, err)
}

func TestSQLite_GetUnknownRun(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetRun(context.Background(), "nope")
	assert.Error(t, err)
}

func TestSQLite_SaveAndListLeads(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)

	leads := []model.BusinessRecord{
		{Name: "Café Argana", Category: "cafe", LeadScore: 95, Phone: "+212524111111",
			WebsiteProbe: &model.WebsiteProbeResult{
				Found: true, URL: "https://restaurantargana.com",
				ConfidenceScore: 80,
				DomainsChecked:  []string{"argana.com", "restaurantargana.com"},
				Method:          model.ProbeMethodDomainGuessing,
			}},
		{Name: "Restaurant Atlas", Category: "restaurant", LeadScore: 88},
	}
	require.NoError(t, st.SaveLeads(ctx, run.ID, leads))

	got, err := st.ListLeads(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Rank order survives the round trip.
	assert.Equal(t, "Café Argana", got[0].Name)
	assert.Equal(t, leads[0], got[0])
	assert.Equal(t, leads[1], got[1])
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.CreateRun(ctx)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, first.ID, model.RunStatusRanked, model.RunSummary{Input: 3}))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ranked, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusRanked})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, first.ID, ranked[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
