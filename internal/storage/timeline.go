package storage

import (
	"fmt"
	"math"
	"sort"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
)

// Timeline returns entity generation, activity start and activity end events
// ordered by time. Events with equal times keep that grouping order.
func (s *Store) Timeline() ([]models.TimelineEvent, error) {
	events := []models.TimelineEvent{}

	entities, err := s.queryEntities(`SELECT ` + entityColumns + ` FROM entities e WHERE e.generated_at_time != '' ORDER BY e.rowid`)
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		events = append(events, models.TimelineEvent{
			ID:          e.ID,
			Name:        e.Name,
			Type:        models.EventEntityGenerated,
			Time:        e.GeneratedAtTime,
			Description: fmt.Sprintf("Entity '%s' was generated", e.Name),
		})
	}

	activities, err := s.queryActivities(`SELECT ` + activityColumns + ` FROM activities a WHERE a.start_time != '' OR a.end_time != '' ORDER BY a.rowid`)
	if err != nil {
		return nil, err
	}
	for _, a := range activities {
		if a.StartTime == "" {
			continue
		}
		events = append(events, models.TimelineEvent{
			ID:          a.ID,
			Name:        a.Name,
			Type:        models.EventActivityStarted,
			Time:        a.StartTime,
			Description: fmt.Sprintf("Activity '%s' started", a.Name),
		})
	}
	for _, a := range activities {
		if a.EndTime == "" {
			continue
		}
		events = append(events, models.TimelineEvent{
			ID:          a.ID,
			Name:        a.Name,
			Type:        models.EventActivityEnded,
			Time:        a.EndTime,
			Description: fmt.Sprintf("Activity '%s' ended", a.Name),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		ti, erri := parseTime(events[i].Time)
		tj, errj := parseTime(events[j].Time)
		if erri != nil || errj != nil {
			return events[i].Time < events[j].Time
		}
		return ti.Before(tj)
	})
	return events, nil
}

// Summary returns node and relationship counts plus timestamp coverage.
func (s *Store) Summary() (*models.GraphSummary, error) {
	var sum models.GraphSummary

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM entities`, &sum.Entities.Total},
		{`SELECT COUNT(*) FROM entities WHERE generated_at_time != ''`, &sum.Entities.WithGenerationTime},
		{`SELECT COUNT(*) FROM activities`, &sum.Activities.Total},
		{`SELECT COUNT(*) FROM activities WHERE start_time != ''`, &sum.Activities.WithStartTime},
		{`SELECT COUNT(*) FROM activities WHERE end_time != ''`, &sum.Activities.WithEndTime},
		{`SELECT COUNT(*) FROM agents`, &sum.Agents.Total},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	sum.Relationships = make(map[models.RelationType]int, len(models.RelationTypes))
	for _, t := range models.RelationTypes {
		sum.Relationships[t] = 0
	}
	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM relationships GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count relationships: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan relationship count: %w", err)
		}
		sum.Relationships[models.RelationType(t)] = n
		sum.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sum.Entities.PercentageWithTime = percentage(sum.Entities.WithGenerationTime, sum.Entities.Total)
	sum.Activities.PercentageWithStartTime = percentage(sum.Activities.WithStartTime, sum.Activities.Total)
	sum.Activities.PercentageWithEndTime = percentage(sum.Activities.WithEndTime, sum.Activities.Total)
	sum.GraphMetadata = models.GraphMetadata{GeneratedAt: formatTime(s.now())}
	return &sum, nil
}

// percentage returns part/total as a percentage rounded to two decimals, or
// 0 when total is 0.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
