package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/adinsights-cli/internal/config"
	"github.com/sells-group/adinsights-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_RunLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "q3-campaigns")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusAnalyzing))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusAnalyzing, got.Status)
	assert.Equal(t, "q3-campaigns", got.DatasetLabel)
	assert.Nil(t, got.Report)
}

func TestSQLite_UpdateRunReport(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "label")
	require.NoError(t, err)

	report := &model.AggregatedReport{
		RunID:        run.ID,
		DatasetLabel: "label",
		Narrative:    model.Narrative{Brief: "brief text", Provider: "anthropic"},
		CostUSD:      0.42,
	}
	require.NoError(t, s.UpdateRunReport(ctx, run.ID, model.RunStatusComplete, report))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Report)
	assert.Equal(t, "brief text", got.Report.Narrative.Brief)
	assert.Equal(t, 0.42, got.Report.CostUSD)
}

func TestSQLite_UpdateUnknownRun(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	assert.Error(t, s.UpdateRunStatus(ctx, "missing", model.RunStatusComplete))
	assert.Error(t, s.UpdateRunReport(ctx, "missing", model.RunStatusComplete, &model.AggregatedReport{}))

	_, err := s.GetRun(ctx, "missing")
	assert.Error(t, err)
}

func TestSQLite_ListRunsFilters(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, "alpha")
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "beta")
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, a.ID, model.RunStatusComplete))

	byStatus, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, a.ID, byStatus[0].ID)

	byLabel, err := s.ListRuns(ctx, RunFilter{DatasetLabel: "beta"})
	require.NoError(t, err)
	require.Len(t, byLabel, 1)
	assert.Equal(t, "beta", byLabel[0].DatasetLabel)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	recent, err := s.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().UTC().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestSQLite_KnowledgeRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	chunks := []model.KnowledgeChunk{
		{Source: "perplexity", Title: "ctr benchmarks", Text: "search averages 3.2%"},
	}
	require.NoError(t, s.PutKnowledge(ctx, "fp-1", chunks, time.Hour))

	got, ok, err := s.GetKnowledge(ctx, "fp-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "ctr benchmarks", got[0].Title)

	_, ok, err = s.GetKnowledge(ctx, "fp-unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_KnowledgeOverwrite(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutKnowledge(ctx, "fp", []model.KnowledgeChunk{{Source: "a", Text: "old"}}, time.Hour))
	require.NoError(t, s.PutKnowledge(ctx, "fp", []model.KnowledgeChunk{{Source: "a", Text: "new"}}, time.Hour))

	got, ok, err := s.GetKnowledge(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got[0].Text)
}

func TestSQLite_KnowledgeExpiry(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	// A negative TTL writes an already-expired entry.
	require.NoError(t, s.PutKnowledge(ctx, "stale", []model.KnowledgeChunk{{Source: "a", Text: "x"}}, -time.Hour))
	require.NoError(t, s.PutKnowledge(ctx, "fresh", []model.KnowledgeChunk{{Source: "a", Text: "y"}}, time.Hour))

	_, ok, err := s.GetKnowledge(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry served")

	n, err := s.DeleteExpiredKnowledge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err = s.GetKnowledge(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok, "fresh entry swept")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpen_SQLiteDefault(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{
		DatabaseURL: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	defer s.Close()

	run, err := s.CreateRun(context.Background(), "smoke")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}
