package achievement

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/enum"
)

//go:embed catalog.toml
var defaultCatalog string

// All achievement ids are derived from their key in this namespace, so every
// deployment agrees on them.
var idNamespace = uuid.MustParse("0b5e3c4c-7c43-4b8e-9f0e-6d8a51c6a9f2")

type CatalogEntry struct {
	Key         string   `toml:"key"`
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Points      int64    `toml:"points"`
	Tier        string   `toml:"tier"`
	Metric      string   `toml:"metric"`
	Threshold   int64    `toml:"threshold"`
	Activities  []string `toml:"activities"`
}

type catalogFile struct {
	Achievements []CatalogEntry `toml:"achievement"`
}

// LoadCatalog returns the shipped catalog.
func LoadCatalog() ([]CatalogEntry, error) {
	return ParseCatalog(defaultCatalog)
}

func ParseCatalog(data string) ([]CatalogEntry, error) {
	var file catalogFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, e := range file.Achievements {
		if e.Key == "" {
			return nil, fmt.Errorf("achievement without key")
		}

		if seen[e.Key] {
			return nil, fmt.Errorf("duplicated achievement %s", e.Key)
		}
		seen[e.Key] = true

		if _, err := enum.ToEnum[entity.AchievementTier](e.Tier); err != nil {
			return nil, fmt.Errorf("achievement %s: %w", e.Key, err)
		}

		if e.Threshold <= 0 {
			return nil, fmt.Errorf("achievement %s: threshold must be positive", e.Key)
		}

		for _, a := range e.Activities {
			if _, err := enum.ToEnum[entity.ActivityType](a); err != nil {
				return nil, fmt.Errorf("achievement %s: %w", e.Key, err)
			}
		}
	}

	return file.Achievements, nil
}

func (e CatalogEntry) Entity() *entity.Achievement {
	return &entity.Achievement{
		ID:          AchievementID(e.Key),
		Key:         e.Key,
		Name:        e.Name,
		Description: e.Description,
		Points:      e.Points,
		Tier:        entity.AchievementTier(e.Tier),
	}
}

func AchievementID(key string) string {
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}
