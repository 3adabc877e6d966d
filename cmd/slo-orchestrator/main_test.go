package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, services string) string {
	t.Helper()
	configs, err := filepath.Abs(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)
	if services == "" {
		services = filepath.Join(configs, "services.yaml")
	}

	body := fmt.Sprintf(`app:
  id: 31854
tables:
  categories: %s
  enrichment: %s
  services: %s
classifier:
  provider: static
  staticIntent: SLO_DEFINITION
logging:
  level: error
`, filepath.Join(configs, "intent_categories.yaml"), filepath.Join(configs, "enrichment_rules.yaml"), services)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) []byte {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.Bytes()
}

func TestResolveTimeCommand(t *testing.T) {
	cfg := writeTestConfig(t, "")
	out := runCommand(t, "--config", cfg, "resolve-time", "--now", "1705492800000", "yesterday")

	var decoded struct {
		TimeResolution struct {
			StartTime int64  `json:"start_time"`
			EndTime   int64  `json:"end_time"`
			Index     string `json:"index"`
		} `json:"time_resolution"`
		Start string `json:"start"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, int64(1705363200000), decoded.TimeResolution.StartTime)
	assert.Equal(t, int64(1705449600000), decoded.TimeResolution.EndTime)
	assert.Equal(t, "2024-01-16T00:00:00Z", decoded.Start)
}

func TestServicesMatchCommand(t *testing.T) {
	cfg := writeTestConfig(t, "")
	out := runCommand(t, "--config", cfg, "services", "match", "--limit", "1", "payments")

	var decoded struct {
		Found   bool `json:"found"`
		Matches []struct {
			Candidate struct {
				ServiceID int64 `json:"service_id"`
			} `json:"candidate"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.True(t, decoded.Found)
	require.Len(t, decoded.Matches, 1)
	assert.Equal(t, int64(104), decoded.Matches[0].Candidate.ServiceID)
}

func TestAskCommandWithStaticClassifier(t *testing.T) {
	cfg := writeTestConfig(t, filepath.Join(t.TempDir(), "missing-services.yaml"))
	out := runCommand(t, "--config", cfg, "ask", "how", "is", "availability", "measured?")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, []any{"postgres"}, decoded["data_sources_used"])

	data := decoded["data"].(map[string]any)
	postgres := data["postgres"].(map[string]any)
	assert.Equal(t, "NOT_IMPLEMENTED", postgres["status"])
}
