package storage

import (
	"fmt"
	"strings"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
)

// RecordActivityInput describes an activity about to run: the activities it
// depends on and the entities it reads.
type RecordActivityInput struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Informers []string `json:"informers,omitempty"`
	Inputs    []string `json:"inputs,omitempty"`
	StartTime string   `json:"start_time,omitempty"`
	EndTime   string   `json:"end_time,omitempty"`
	Comment   string   `json:"comment,omitempty"`
}

// RecordEntity creates an entity stamped with the current time as its
// generation time.
func (s *Store) RecordEntity(name, location, comment string) (*models.Entity, error) {
	return s.CreateEntity(NewEntity{
		Name:            name,
		Location:        location,
		GeneratedAtTime: formatTime(s.now()),
		Comment:         comment,
	})
}

// RecordActivity creates an activity together with a was_informed_by edge
// from every informer and a used edge to every input, in one transaction.
// StartTime defaults to now.
func (s *Store) RecordActivity(in RecordActivityInput) (*models.Activity, error) {
	start, err := normalizeTime("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}
	if start == "" {
		start = formatTime(s.now())
	}
	end, err := normalizeTime("end_time", in.EndTime)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	activity, err := insertActivity(tx, NewActivity{
		ID:        in.ID,
		Name:      strings.TrimSpace(in.Name),
		StartTime: start,
		EndTime:   end,
		Comment:   in.Comment,
	})
	if err != nil {
		return nil, err
	}

	for _, informer := range in.Informers {
		_, err := insertRelationship(tx, NewRelationship{
			Type:   models.WasInformedBy,
			Source: informer,
			Target: activity.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	usedAt := formatTime(s.now())
	for _, input := range in.Inputs {
		_, err := insertRelationship(tx, NewRelationship{
			Type:   models.Used,
			Source: activity.ID,
			Target: input,
			Time:   usedAt,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return activity, nil
}

// CompleteActivity closes an activity: it stamps the end time, records a
// was_generated_by edge for every output and a was_derived_from edge for
// every (input, output) pair. Completing again keeps the first end time and
// only adds edges that are not already recorded. An entity that is both input
// and output is never derived from itself.
func (s *Store) CompleteActivity(activityID string, outputs []string) (*models.Activity, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	activity, err := getActivity(tx, activityID)
	if err != nil {
		return nil, err
	}

	if activity.EndTime == "" {
		end := formatTime(s.now())
		if _, err := tx.Exec(`UPDATE activities SET end_time = ? WHERE id = ?`, end, activityID); err != nil {
			return nil, fmt.Errorf("update activity end time: %w", err)
		}
		activity.EndTime = end
	}

	inputs, err := relationshipsFrom(tx, models.Used, activityID)
	if err != nil {
		return nil, err
	}

	for _, output := range outputs {
		if err := linkOnce(tx, models.WasGeneratedBy, activityID, output); err != nil {
			return nil, err
		}
		for _, in := range inputs {
			if in.Target == output {
				continue
			}
			if err := linkOnce(tx, models.WasDerivedFrom, in.Target, output); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return activity, nil
}

// linkOnce inserts a relationship unless one of the same type already joins
// source and target.
func linkOnce(q queryer, t models.RelationType, source, target string) error {
	var n int
	err := q.QueryRow(
		`SELECT COUNT(*) FROM relationships WHERE type = ? AND source_id = ? AND target_id = ?`,
		string(t), source, target,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("lookup %s edge: %w", t, err)
	}
	if n > 0 {
		return nil
	}
	_, err = insertRelationship(q, NewRelationship{Type: t, Source: source, Target: target})
	return err
}
