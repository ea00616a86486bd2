// Package seed loads the model roster from a YAML file into the registry.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/debatearena/arena/internal/metrics"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/repository"
	"github.com/debatearena/arena/pkg/logger"
)

// Roster is the YAML roster document.
type Roster struct {
	Models []RosterModel `yaml:"models"`
}

// RosterModel is one roster entry. Active defaults to true when omitted.
type RosterModel struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Active   *bool  `yaml:"active"`
}

// Load parses a roster file.
func Load(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}

	var roster Roster
	if err := yaml.Unmarshal(raw, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %s: %w", path, err)
	}
	for i, m := range roster.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("roster entry %d has no name", i)
		}
	}
	return &roster, nil
}

// Apply upserts every roster entry. Ratings and counters of existing models
// are left untouched; only registry metadata is refreshed.
func Apply(roster *Roster, modelRepo *repository.ModelRepository, log *logger.Logger) error {
	for _, entry := range roster.Models {
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}

		model := &models.Model{
			Name:      entry.Name,
			Provider:  entry.Provider,
			EloRating: models.DefaultEloRating,
			IsActive:  active,
		}
		if err := modelRepo.CreateOrUpdate(model); err != nil {
			return fmt.Errorf("failed to seed model %q: %w", entry.Name, err)
		}
		log.Debug().Str("model", entry.Name).Bool("active", active).Msg("Seeded model")
	}

	count, err := modelRepo.CountActive()
	if err != nil {
		return err
	}
	metrics.SetActiveModels(int(count))

	log.Info().Int("roster_size", len(roster.Models)).Int64("active", count).Msg("Model roster applied")
	return nil
}
