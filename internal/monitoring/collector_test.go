package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/store"
)

// mockRuns implements RunLister for testing.
type mockRuns struct {
	runs    []model.Run
	listErr error
	filter  store.RunFilter
}

func (m *mockRuns) ListRuns(_ context.Context, filter store.RunFilter) ([]model.Run, error) {
	m.filter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	var filtered []model.Run
	for _, r := range m.runs {
		if !filter.CreatedAfter.IsZero() && r.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

func TestCollector_Collect(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := &mockRuns{runs: []model.Run{
		{
			ID: "1", Status: model.RunStatusComplete, CreatedAt: now.Add(-time.Hour),
			Stats: &model.BatchStats{
				Total:              10,
				MultiLocationCount: 2,
				PhoneMismatchCount: 1,
				ConfidenceDistribution: map[model.ConfidenceTier]int{
					model.ConfidenceHigh: 6, model.ConfidenceMedium: 3, model.ConfidenceLow: 1,
				},
			},
		},
		{
			ID: "2", Status: model.RunStatusComplete, CreatedAt: now.Add(-2 * time.Hour),
			Stats: &model.BatchStats{
				Total:                  4,
				ConfidenceDistribution: map[model.ConfidenceTier]int{model.ConfidenceHigh: 4},
			},
		},
		{ID: "3", Status: model.RunStatusFailed, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "4", Status: model.RunStatusRunning, CreatedAt: now.Add(-time.Minute)},
		{ID: "old", Status: model.RunStatusFailed, CreatedAt: now.Add(-48 * time.Hour)},
	}}

	c := NewCollector(runs)
	c.now = func() time.Time { return now }

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, now.Add(-24*time.Hour), runs.filter.CreatedAfter)
	assert.Equal(t, 4, snap.RunsTotal)
	assert.Equal(t, 2, snap.RunsComplete)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.Equal(t, 1, snap.RunsRunning)
	assert.InDelta(t, 1.0/3.0, snap.FailRate, 0.001)
	assert.Equal(t, 14, snap.Records)
	assert.Equal(t, 2, snap.MultiLocation)
	assert.Equal(t, 1, snap.PhoneMismatches)
	assert.Equal(t, 10, snap.ConfidenceDistribution[model.ConfidenceHigh])
	assert.Equal(t, 3, snap.ConfidenceDistribution[model.ConfidenceMedium])
	assert.Equal(t, 1, snap.ConfidenceDistribution[model.ConfidenceLow])
	assert.Equal(t, 24, snap.LookbackHours)
	assert.Equal(t, now, snap.CollectedAt)
}

func TestCollector_Empty(t *testing.T) {
	snap, err := NewCollector(&mockRuns{}).Collect(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, snap.RunsTotal)
	assert.Zero(t, snap.FailRate)
	assert.Len(t, snap.ConfidenceDistribution, 3)
}

func TestCollector_ListError(t *testing.T) {
	_, err := NewCollector(&mockRuns{listErr: errors.New("db down")}).Collect(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: list runs")
}
