package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "summary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveSummaryAndRecent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	first := NewRunID()
	require.NoError(t, s.SaveSummary(ctx, first, at, []SummaryRecord{
		{Category: "Intervention", TotalPass: 3, TotalFail: 1, FailRate: 25},
		{Category: "Soft Error", TotalPass: 4, TotalFail: 0, FailRate: 0},
	}))
	second := NewRunID()
	require.NoError(t, s.SaveSummary(ctx, second, at.Add(time.Hour), []SummaryRecord{
		{Category: "ADF Skew", TotalPass: 1, TotalFail: 1, FailRate: 50},
	}))

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "ADF Skew", recent[0].Category)
	assert.Equal(t, second, recent[0].RunID)
	assert.True(t, recent[0].Timestamp.Equal(at.Add(time.Hour)))
	assert.Equal(t, "Soft Error", recent[1].Category)

	run, err := s.Run(ctx, first)
	require.NoError(t, err)
	require.Len(t, run, 2)
	assert.Equal(t, "Intervention", run[0].Category)
	assert.Equal(t, 3, run[0].TotalPass)
	assert.Equal(t, 1, run[0].TotalFail)
	assert.InDelta(t, 25.0, run[0].FailRate, 1e-9)
}

func TestSaveSummaryRequiresRunID(t *testing.T) {
	s := openTemp(t)
	err := s.SaveSummary(context.Background(), "", time.Now(), nil)
	require.Error(t, err)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "summary.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Recent(context.Background(), 0)
	assert.ErrorIs(t, err, ErrClosed)
	err = s.SaveSummary(context.Background(), NewRunID(), time.Now(), nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewRunIDUnique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
