package metadata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollowers/pkg/models"
)

func TestAddResults(t *testing.T) {
	s := NewRunSummary("run", "natgeo", 100)
	s.AddResults([]models.AttributeResult{
		{Identifier: "a", Followers: models.Count(1), Strategy: "meta-description"},
		{Identifier: "b", Followers: models.Count(0), Strategy: "embedded-data"},
		{Identifier: "c", Followers: models.Count(5), Strategy: "meta-description"},
		{Identifier: "d"},
	})

	assert.Equal(t, 3, s.Resolved)
	assert.Equal(t, 1, s.Unresolved)
	assert.Equal(t, map[string]int{"meta-description": 2, "embedded-data": 1}, s.StrategyHits)
}

func TestSaveAndLoad(t *testing.T) {
	export := filepath.Join(t.TempDir(), "followers.xlsx")

	s := NewRunSummary("run-9", "natgeo", 4000)
	s.Collected = 3
	s.Cycles = 7
	s.StopReason = "stagnated"

	path, err := s.Save(export)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(export), "followers.summary.json"), path)
	assert.False(t, s.FinishedAt.IsZero())

	loaded, err := Load(export)
	require.NoError(t, err)
	assert.Equal(t, "run-9", loaded.RunID)
	assert.Equal(t, 7, loaded.Cycles)
	assert.Equal(t, "stagnated", loaded.StopReason)
	assert.GreaterOrEqual(t, loaded.Duration(), s.Duration()-s.Duration())
}
