package tables

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/utils"
)

// IntentSources maps an intent to the data sources able to answer it.
type IntentSources map[models.IntentID][]models.DataSourceID

// EnrichmentRules maps an intent to the intents that should be added alongside it.
type EnrichmentRules map[models.IntentID][]models.IntentID

// IntentDefinition describes one intent for the classifier prompt and source routing.
type IntentDefinition struct {
	ID          models.IntentID
	Description string
	DataSources []models.DataSourceID
}

// Category groups related intents.
type Category struct {
	Name    string
	Intents []IntentDefinition
}

// Paths locates the three table files.
type Paths struct {
	Categories string
	Enrichment string
	Services   string
}

// Tables is the read-only configuration shared by every request. It is built
// once at start-up and never mutated afterwards; accessors return shared maps
// that callers must not modify.
type Tables struct {
	categories []Category
	sources    IntentSources
	rules      EnrichmentRules
	catalog    Catalog
}

type categoriesFile struct {
	Categories []struct {
		Name    string `yaml:"name"`
		Intents []struct {
			ID          string   `yaml:"id"`
			Description string   `yaml:"description"`
			DataSources []string `yaml:"data_sources"`
		} `yaml:"intents"`
	} `yaml:"categories"`
}

type enrichmentFile struct {
	Rules map[string][]string `yaml:"rules"`
}

// Load reads all tables from disk. A missing services file yields an empty catalog.
func Load(paths Paths) (*Tables, error) {
	categories, err := loadCategories(paths.Categories)
	if err != nil {
		return nil, err
	}
	rules, err := loadEnrichment(paths.Enrichment)
	if err != nil {
		return nil, err
	}
	catalog, err := LoadCatalog(paths.Services)
	if err != nil {
		return nil, err
	}
	return New(categories, rules, catalog)
}

// New validates and freezes in-memory tables.
func New(categories []Category, rules EnrichmentRules, catalog Catalog) (*Tables, error) {
	sources := make(IntentSources)
	seen := make(map[models.IntentID]string)
	for _, cat := range categories {
		for _, def := range cat.Intents {
			if _, ok := models.ParseIntent(string(def.ID)); !ok {
				return nil, utils.NewAppError("tables.New", fmt.Sprintf("category %s declares unknown intent %q", cat.Name, def.ID), nil)
			}
			if prev, dup := seen[def.ID]; dup {
				return nil, utils.NewAppError("tables.New", fmt.Sprintf("intent %s declared in both %s and %s", def.ID, prev, cat.Name), nil)
			}
			seen[def.ID] = cat.Name
			sources[def.ID] = slices.Clone(def.DataSources)
		}
	}

	frozen := make(EnrichmentRules, len(rules))
	for from, additions := range rules {
		if _, ok := models.ParseIntent(string(from)); !ok {
			return nil, utils.NewAppError("tables.New", fmt.Sprintf("enrichment rule for unknown intent %q", from), nil)
		}
		for _, add := range additions {
			if _, ok := models.ParseIntent(string(add)); !ok {
				return nil, utils.NewAppError("tables.New", fmt.Sprintf("enrichment rule %s adds unknown intent %q", from, add), nil)
			}
		}
		frozen[from] = slices.Clone(additions)
	}

	return &Tables{
		categories: slices.Clone(categories),
		sources:    sources,
		rules:      frozen,
		catalog:    catalog.clone(),
	}, nil
}

// Categories returns the intent catalogue in file order.
func (t *Tables) Categories() []Category { return t.categories }

// IntentSources returns the intent to data-source table.
func (t *Tables) IntentSources() IntentSources { return t.sources }

// EnrichmentRules returns the enrichment table.
func (t *Tables) EnrichmentRules() EnrichmentRules { return t.rules }

// Catalog returns the service catalog.
func (t *Tables) Catalog() Catalog { return t.catalog }

func loadCategories(path string) ([]Category, error) {
	var file categoriesFile
	if err := readYAML(path, &file); err != nil {
		return nil, err
	}
	categories := make([]Category, 0, len(file.Categories))
	for _, c := range file.Categories {
		cat := Category{Name: c.Name}
		for _, in := range c.Intents {
			id, _ := models.ParseIntent(in.ID)
			def := IntentDefinition{ID: id, Description: in.Description}
			for _, ds := range in.DataSources {
				def.DataSources = append(def.DataSources, models.DataSourceID(ds))
			}
			cat.Intents = append(cat.Intents, def)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

func loadEnrichment(path string) (EnrichmentRules, error) {
	var file enrichmentFile
	if err := readYAML(path, &file); err != nil {
		return nil, err
	}
	rules := make(EnrichmentRules, len(file.Rules))
	for from, additions := range file.Rules {
		id, _ := models.ParseIntent(from)
		for _, add := range additions {
			addID, _ := models.ParseIntent(add)
			rules[id] = append(rules[id], addID)
		}
	}
	return rules, nil
}

func readYAML(path string, out any) error {
	if path == "" {
		return utils.NewAppError("tables.read", "empty path", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return utils.NewAppError("tables.read", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return utils.NewAppError("tables.parse", path, err)
	}
	return nil
}
