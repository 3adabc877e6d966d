package tables

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/utils"
)

// Catalog is the ordered list of services known for one application.
type Catalog struct {
	ApplicationID int64
	Services      []models.ServiceCandidate
}

func (c Catalog) clone() Catalog {
	return Catalog{ApplicationID: c.ApplicationID, Services: slices.Clone(c.Services)}
}

type catalogFile struct {
	ApplicationID int64                     `yaml:"application_id"`
	Services      []models.ServiceCandidate `yaml:"services"`
	ServicesByID  yaml.Node                 `yaml:"services_by_id"`
}

type catalogOutput struct {
	ApplicationID int64                     `yaml:"application_id"`
	TotalServices int                       `yaml:"total_services"`
	GeneratedAt   string                    `yaml:"generated_at"`
	Services      []models.ServiceCandidate `yaml:"services"`
}

var httpMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

type legacyService struct {
	ServiceID   int64  `yaml:"service_id"`
	ServiceName string `yaml:"service_name"`
	ServicePath string `yaml:"service_path"`
}

// LoadCatalog reads a services file. Both the list layout and the older
// services_by_id mapping are accepted; entries keep document order.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return Catalog{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Catalog{}, nil
		}
		return Catalog{}, utils.NewAppError("tables.LoadCatalog", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, utils.NewAppError("tables.LoadCatalog", path, err)
	}

	catalog := Catalog{ApplicationID: file.ApplicationID}
	for _, svc := range file.Services {
		catalog.Services = append(catalog.Services, normaliseCandidate(svc))
	}

	if file.ServicesByID.Kind == yaml.MappingNode {
		content := file.ServicesByID.Content
		for i := 0; i+1 < len(content); i += 2 {
			var entry legacyService
			if err := content[i+1].Decode(&entry); err != nil {
				return Catalog{}, utils.NewAppError("tables.LoadCatalog", fmt.Sprintf("services_by_id[%s]", content[i].Value), err)
			}
			if entry.ServiceID == 0 {
				id, err := strconv.ParseInt(content[i].Value, 10, 64)
				if err != nil {
					return Catalog{}, utils.NewAppError("tables.LoadCatalog", fmt.Sprintf("invalid service id %q", content[i].Value), err)
				}
				entry.ServiceID = id
			}
			catalog.Services = append(catalog.Services, normaliseCandidate(models.ServiceCandidate{
				ServiceID: entry.ServiceID,
				Name:      entry.ServiceName,
				Path:      entry.ServicePath,
			}))
		}
	}
	return catalog, nil
}

// WriteCatalog persists the catalog in list layout.
func WriteCatalog(path string, catalog Catalog, generatedAt time.Time) error {
	file := catalogOutput{
		ApplicationID: catalog.ApplicationID,
		TotalServices: len(catalog.Services),
		GeneratedAt:   generatedAt.UTC().Format(time.RFC3339),
		Services:      catalog.Services,
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return utils.NewAppError("tables.WriteCatalog", "marshal", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return utils.NewAppError("tables.WriteCatalog", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return utils.NewAppError("tables.WriteCatalog", path, err)
	}
	return nil
}

func normaliseCandidate(svc models.ServiceCandidate) models.ServiceCandidate {
	if strings.TrimSpace(svc.Path) == "" {
		svc.Path = ServicePath(svc.Name)
	}
	return svc
}

// ServicePath reduces a raw service name such as
// "GET https://host:443/services/wmtest/api/test-runs" to "wmtest/api/test-runs".
func ServicePath(name string) string {
	url := strings.TrimSpace(name)
	if method, rest, ok := strings.Cut(url, " "); ok && slices.Contains(httpMethods, strings.ToUpper(method)) {
		url = strings.TrimSpace(rest)
	}
	if _, afterScheme, ok := strings.Cut(url, "://"); ok {
		if _, p, hasPath := strings.Cut(afterScheme, "/"); hasPath {
			url = p
		} else {
			url = afterScheme
		}
	}
	return strings.TrimPrefix(url, "services/")
}
