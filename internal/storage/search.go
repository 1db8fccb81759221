package storage

import (
	"fmt"
	"strings"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
)

// Search returns entities, activities and agents whose name contains query,
// case-insensitively. kind restricts the search to one node kind; blank
// searches all three and an unrecognised kind matches nothing.
func (s *Store) Search(query, kind string) (*models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", ErrInvalid)
	}

	result := &models.SearchResult{
		Entities:   []models.Entity{},
		Activities: []models.Activity{},
		Agents:     []models.Agent{},
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var err error
	if kind == "" || kind == models.KindEntity {
		result.Entities, err = s.queryEntities(
			`SELECT `+entityColumns+` FROM entities e WHERE lower(e.name) LIKE ? ESCAPE '\' ORDER BY e.rowid`,
			pattern,
		)
		if err != nil {
			return nil, fmt.Errorf("search entities: %w", err)
		}
	}
	if kind == "" || kind == models.KindActivity {
		result.Activities, err = s.queryActivities(
			`SELECT `+activityColumns+` FROM activities a WHERE lower(a.name) LIKE ? ESCAPE '\' ORDER BY a.rowid`,
			pattern,
		)
		if err != nil {
			return nil, fmt.Errorf("search activities: %w", err)
		}
	}
	if kind == "" || kind == models.KindAgent {
		result.Agents, err = s.queryAgents(
			`SELECT `+agentColumns+` FROM agents g WHERE lower(g.name) LIKE ? ESCAPE '\' ORDER BY g.rowid`,
			pattern,
		)
		if err != nil {
			return nil, fmt.Errorf("search agents: %w", err)
		}
	}

	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
