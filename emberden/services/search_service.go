package services

import (
	"context"
	"strings"

	"github.com/emberden/emberden/emberden/database/models"
	"github.com/emberden/emberden/emberden/database/repositories"
	"github.com/sahilm/fuzzy"
)

// MissionSearchItems implements fuzzy.Source for mission searching
type MissionSearchItems []MissionSearchItem

type MissionSearchItem struct {
	Mission *models.MissionDefinition
	Name    string
}

func (items MissionSearchItems) Len() int {
	return len(items)
}

func (items MissionSearchItems) String(i int) string {
	return items[i].Name
}

// MonsterSearchItems implements fuzzy.Source for monster searching
type MonsterSearchItems []MonsterSearchItem

type MonsterSearchItem struct {
	Monster *models.Monster
	Name    string
}

func (items MonsterSearchItems) Len() int {
	return len(items)
}

func (items MonsterSearchItems) String(i int) string {
	return items[i].Name
}

// SearchService backs command autocomplete with fuzzy matching over
// mission names and a trainer's own monsters.
type SearchService struct {
	missions repositories.MissionRepository
	monsters repositories.MonsterRepository
}

func NewSearchService(missions repositories.MissionRepository, monsters repositories.MonsterRepository) *SearchService {
	return &SearchService{
		missions: missions,
		monsters: monsters,
	}
}

// SearchMissions returns up to limit mission definitions ranked by fuzzy
// match quality. An empty query returns the first definitions in listing
// order.
func (s *SearchService) SearchMissions(ctx context.Context, query string, limit int) ([]*models.MissionDefinition, error) {
	defs, err := s.missions.GetAllDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		if len(defs) > limit {
			defs = defs[:limit]
		}
		return defs, nil
	}

	items := make(MissionSearchItems, len(defs))
	for i, def := range defs {
		items[i] = MissionSearchItem{Mission: def, Name: def.Name}
	}

	matches := fuzzy.FindFrom(query, items)
	results := make([]*models.MissionDefinition, 0, limit)
	for _, m := range matches {
		results = append(results, items[m.Index].Mission)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// SearchMonsters fuzzy-matches over a single trainer's monsters by name
// and species.
func (s *SearchService) SearchMonsters(ctx context.Context, trainerID, query string, limit int) ([]*models.Monster, error) {
	monsters, err := s.monsters.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		if len(monsters) > limit {
			monsters = monsters[:limit]
		}
		return monsters, nil
	}

	items := make(MonsterSearchItems, len(monsters))
	for i, monster := range monsters {
		items[i] = MonsterSearchItem{
			Monster: monster,
			Name:    monster.Name + " " + monster.Species,
		}
	}

	matches := fuzzy.FindFrom(query, items)
	results := make([]*models.Monster, 0, limit)
	for _, m := range matches {
		results = append(results, items[m.Index].Monster)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}
