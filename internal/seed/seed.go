// Package seed loads a sample observation pipeline into an empty store: raw
// telemetry (lv0) is reduced through generation, screening and analysis
// stages into science products.
package seed

import (
	"errors"
	"fmt"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

// ErrNotEmpty is returned when the store already holds entities.
var ErrNotEmpty = errors.New("store already has provenance data")

// Sample holds the nodes tests and callers usually want to look at.
type Sample struct {
	Lv0         *models.Entity
	Lv1         *models.Entity
	CalDB       *models.Entity
	Cleaned     *models.Entity
	Image       *models.Entity
	Observation *models.Activity
	Generation  *models.Activity
	Screening   *models.Activity
	Analysis    *models.Activity
	Pipeline    *models.Agent
	Products    []*models.Entity
}

type loader struct {
	store *storage.Store
	err   error
}

func (l *loader) entity(name string) *models.Entity {
	if l.err != nil {
		return nil
	}
	e, err := l.store.RecordEntity(name, "", "")
	if err != nil {
		l.err = fmt.Errorf("seed entity %s: %w", name, err)
	}
	return e
}

func (l *loader) run(name string, informers []*models.Activity, inputs []*models.Entity, outputs ...*models.Entity) *models.Activity {
	if l.err != nil {
		return nil
	}
	in := storage.RecordActivityInput{Name: name}
	for _, a := range informers {
		in.Informers = append(in.Informers, a.ID)
	}
	for _, e := range inputs {
		in.Inputs = append(in.Inputs, e.ID)
	}
	a, err := l.store.RecordActivity(in)
	if err != nil {
		l.err = fmt.Errorf("seed activity %s: %w", name, err)
		return nil
	}

	ids := make([]string, 0, len(outputs))
	for _, e := range outputs {
		ids = append(ids, e.ID)
	}
	a, err = l.store.CompleteActivity(a.ID, ids)
	if err != nil {
		l.err = fmt.Errorf("complete activity %s: %w", name, err)
	}
	return a
}

// Load writes the sample pipeline. It refuses to touch a store that already
// has entities.
func Load(store *storage.Store) (*Sample, error) {
	graph, err := store.Graph()
	if err != nil {
		return nil, err
	}
	if len(graph.Entities) > 0 {
		return nil, ErrNotEmpty
	}

	l := &loader{store: store}
	s := &Sample{}

	s.Lv0 = l.entity("lv0")
	att, orb, mkf := l.entity("att"), l.entity("orb"), l.entity("mkf")
	s.Observation = l.run("obs", nil, []*models.Entity{s.Lv0}, att, orb, mkf)

	s.Lv1 = l.entity("lv1")
	s.Generation = l.run("Data Generation Software",
		[]*models.Activity{s.Observation}, []*models.Entity{s.Lv0, att, orb, mkf}, s.Lv1)

	s.Cleaned = l.entity("Cleaned Events")
	s.CalDB = l.entity("caldb")
	s.Screening = l.run("Data Screen Software",
		[]*models.Activity{s.Generation}, []*models.Entity{s.CalDB}, s.Cleaned)

	s.Image = l.entity("Image")
	s.Products = []*models.Entity{s.Image, l.entity("Catalog"), l.entity("Light Curve"), l.entity("Spectrum")}
	s.Analysis = l.run("Data Analysis Software",
		[]*models.Activity{s.Screening}, []*models.Entity{s.Cleaned}, s.Products...)
	if l.err != nil {
		return nil, l.err
	}

	s.Pipeline, err = store.CreateAgent(storage.NewAgent{
		Name:      "Science Data Pipeline",
		AgentType: "software",
		Role:      "processor",
	})
	if err != nil {
		return nil, fmt.Errorf("seed agent: %w", err)
	}
	for _, a := range []*models.Activity{s.Generation, s.Screening, s.Analysis} {
		if _, err := store.CreateRelationship(storage.NewRelationship{
			Type:   models.WasAssociatedWith,
			Source: a.ID,
			Target: s.Pipeline.ID,
			Role:   "executor",
		}); err != nil {
			return nil, fmt.Errorf("seed association: %w", err)
		}
	}
	if _, err := store.AddConfiguration(s.Screening.ID, models.Configuration{
		Type:     models.ConfigFile,
		Name:     "screening criteria",
		Location: "caldb/screen.cfg",
	}); err != nil {
		return nil, fmt.Errorf("seed configuration: %w", err)
	}
	return s, nil
}
