package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/lineage"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad(t *testing.T) {
	store := openStore(t)

	sample, err := Load(store)
	require.NoError(t, err)
	require.Len(t, sample.Products, 4)

	graph, err := store.Graph()
	require.NoError(t, err)
	assert.Len(t, graph.Entities, 11)
	assert.Len(t, graph.Activities, 4)
	assert.Len(t, graph.Agents, 1)
	assert.Len(t, graph.Relationships, 34)

	_, err = Load(store)
	assert.ErrorIs(t, err, ErrNotEmpty)
}

func TestImageLineage(t *testing.T) {
	store := openStore(t)
	sample, err := Load(store)
	require.NoError(t, err)

	l, err := lineage.NewBuilder(store).EntityLineage(sample.Image.ID)
	require.NoError(t, err)

	assert.Equal(t, 11, l.TotalNodes)
	assert.Equal(t, 20, l.TotalEdges)

	levels := map[string]int{}
	for _, n := range l.Nodes {
		levels[n.Name] = n.Level
	}
	assert.Equal(t, map[string]int{
		"lv0":                      0,
		"caldb":                    0,
		"obs":                      1,
		"att":                      2,
		"orb":                      2,
		"mkf":                      2,
		"Data Generation Software": 3,
		"Data Screen Software":     4,
		"Cleaned Events":           5,
		"Data Analysis Software":   6,
		"Image":                    7,
	}, levels)
}

func TestScreeningProvenance(t *testing.T) {
	store := openStore(t)
	sample, err := Load(store)
	require.NoError(t, err)

	prov, err := store.ActivityProvenance(sample.Screening.ID)
	require.NoError(t, err)

	require.Len(t, prov.Inputs, 1)
	assert.Equal(t, "caldb", prov.Inputs[0].Entity.Name)
	require.Len(t, prov.Outputs, 1)
	assert.Equal(t, "Cleaned Events", prov.Outputs[0].Entity.Name)
	require.Len(t, prov.Dependencies, 1)
	assert.Equal(t, sample.Generation.ID, prov.Dependencies[0].ID)
	require.Len(t, prov.Dependents, 1)
	assert.Equal(t, sample.Analysis.ID, prov.Dependents[0].ID)
	require.Len(t, prov.AssociatedAgents, 1)
	assert.Equal(t, "executor", prov.AssociatedAgents[0].Role)
	require.Len(t, prov.Configurations, 1)
	assert.Equal(t, models.ConfigFile, prov.Configurations[0].Type)
	assert.NotEmpty(t, prov.Activity.EndTime)
}
