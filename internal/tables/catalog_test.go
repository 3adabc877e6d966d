package tables

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/miradorstack/mirador-slo/internal/models"
)

func TestWriteCatalogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "services.yaml")
	in := Catalog{
		ApplicationID: 31854,
		Services: []models.ServiceCandidate{
			{ServiceID: 2, Name: "GET https://host/services/b/api", Path: "b/api"},
			{ServiceID: 1, Name: "GET https://host/services/a/api", Path: "a/api"},
		},
	}
	if err := WriteCatalog(path, in, time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	out, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if out.ApplicationID != in.ApplicationID || len(out.Services) != 2 {
		t.Fatalf("unexpected catalog %+v", out)
	}
	for i := range in.Services {
		if out.Services[i] != in.Services[i] {
			t.Fatalf("service %d: got %+v, want %+v", i, out.Services[i], in.Services[i])
		}
	}
}
