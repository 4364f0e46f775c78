package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/wayfarer/internal/pipeline"
)

func TestJournal_RecordAndRecent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer j.Close()

	run := &pipeline.Run{
		ID: "run-1",
		Request: pipeline.TripRequest{
			Origin:    "Seattle",
			StartDate: "2025-12-15",
			EndDate:   "2025-12-22",
		},
		Destination: "Orlando",
		Itinerary:   "# Day 1\nVisit the parks.",
	}
	require.NoError(t, j.Record(run))

	entries, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "run-1", e.ID)
	assert.Equal(t, "Seattle", e.Origin)
	assert.Equal(t, "Orlando", e.Destination)
	assert.Contains(t, e.Itinerary, "Day 1")
	assert.False(t, e.CreatedAt.IsZero())
}

func TestJournal_DuplicateIDRejected(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer j.Close()

	run := &pipeline.Run{ID: "dup"}
	require.NoError(t, j.Record(run))
	assert.Error(t, j.Record(run))
}
