package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures every setting required to boot the SLO orchestrator.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	App        AppConfig        `yaml:"app"`
	Tables     TablesConfig     `yaml:"tables"`
	Matcher    MatcherConfig    `yaml:"matcher"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Clients    ClientsConfig    `yaml:"clients"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig controls gRPC listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// AppConfig identifies the monitored application.
type AppConfig struct {
	ID int64 `yaml:"id"`
}

// TablesConfig locates the declarative intent and service tables.
type TablesConfig struct {
	Categories string `yaml:"categories"`
	Enrichment string `yaml:"enrichment"`
	Services   string `yaml:"services"`
}

// MatcherConfig tunes fuzzy service-name resolution.
type MatcherConfig struct {
	Threshold  float64 `yaml:"threshold"`
	MaxResults int     `yaml:"maxResults"`
}

// DispatchConfig bounds adapter calls.
type DispatchConfig struct {
	AdapterTimeout time.Duration `yaml:"adapterTimeout"`
	// MaxConcurrency caps in-flight adapter calls per question; 0 means unbounded.
	MaxConcurrency int `yaml:"maxConcurrency"`
}

// ClassifierConfig selects and configures the language-model classifier.
type ClassifierConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseURL"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int32         `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
	// Region and Profile select the AWS account used by the bedrock provider.
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
	// StaticIntent and StaticTimeRange drive the offline classifier used in local development.
	StaticIntent    string `yaml:"staticIntent"`
	StaticTimeRange string `yaml:"staticTimeRange"`
}

// ClientsConfig groups integrations with the data backends.
type ClientsConfig struct {
	Patterns PatternStoreConfig `yaml:"patterns"`
	Stats    StatsClientConfig  `yaml:"stats"`
}

// PatternStoreConfig configures the ClickHouse HTTP interface.
type PatternStoreConfig struct {
	URL           string        `yaml:"url"`
	Database      string        `yaml:"database"`
	Table         string        `yaml:"table"`
	FeaturesTable string        `yaml:"featuresTable"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	Timeout       time.Duration `yaml:"timeout"`
}

// StatsClientConfig configures the error-budget statistics API and its token endpoint.
type StatsClientConfig struct {
	BaseURL          string        `yaml:"baseURL"`
	TransactionsPath string        `yaml:"transactionsPath"`
	TokenURL         string        `yaml:"tokenURL"`
	ClientID         string        `yaml:"clientID"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	PageSize         int           `yaml:"pageSize"`
	Timeout          time.Duration `yaml:"timeout"`
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"serviceName"`
	Insecure    bool   `yaml:"insecure"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
// Variables from a .env file in the working directory are loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("MIRADOR_SLO_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50061",
			MetricsAddress:  ":2113",
			GracefulTimeout: 10 * time.Second,
		},
		App: AppConfig{ID: 31854},
		Tables: TablesConfig{
			Categories: "configs/intent_categories.yaml",
			Enrichment: "configs/enrichment_rules.yaml",
			Services:   "configs/services.yaml",
		},
		Matcher:  MatcherConfig{Threshold: 0.3, MaxResults: 5},
		Dispatch: DispatchConfig{AdapterTimeout: 30 * time.Second, MaxConcurrency: 8},
		Classifier: ClassifierConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-flash",
			MaxTokens: 500,
			Timeout:   20 * time.Second,
		},
		Clients: ClientsConfig{
			Patterns: PatternStoreConfig{
				Database:      "default",
				Table:         "ai_service_behavior_memory",
				FeaturesTable: "ai_service_features_hourly",
				Timeout:       15 * time.Second,
			},
			Stats: StatsClientConfig{
				TransactionsPath: "/services/wmerrorbudgetstatisticsservice/api/transactions/distinct/top-5/ALL",
				ClientID:         "web_app",
				PageSize:         2000,
				Timeout:          15 * time.Second,
			},
		},
		Telemetry: TelemetryConfig{ServiceName: "mirador-slo"},
		Logging:   LoggingConfig{Level: "info", JSON: false},
	}
}

func (c *Config) validate() error {
	if c.Matcher.Threshold < 0 || c.Matcher.Threshold > 1 {
		return fmt.Errorf("matcher threshold %.2f outside [0,1]", c.Matcher.Threshold)
	}
	if c.Dispatch.AdapterTimeout <= 0 {
		return fmt.Errorf("dispatch adapter timeout must be positive")
	}
	if c.Dispatch.MaxConcurrency < 0 {
		return fmt.Errorf("dispatch max concurrency must not be negative")
	}
	switch strings.ToLower(c.Classifier.Provider) {
	case "gemini", "anthropic", "bedrock", "static":
	default:
		return fmt.Errorf("unknown classifier provider %q", c.Classifier.Provider)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MIRADOR_SLO_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("MIRADOR_SLO_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("MIRADOR_SLO_APP_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.App.ID = id
		}
	}
	if v := os.Getenv("MIRADOR_SLO_SERVICES_PATH"); v != "" {
		cfg.Tables.Services = v
	}
	if v := os.Getenv("MIRADOR_SLO_MATCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matcher.Threshold = f
		}
	}
	if v := os.Getenv("MIRADOR_SLO_ADAPTER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dispatch.AdapterTimeout = d
		}
	}
	if v := os.Getenv("MIRADOR_SLO_DISPATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dispatch.MaxConcurrency = n
		}
	}
	if v := os.Getenv("MIRADOR_SLO_CLASSIFIER_PROVIDER"); v != "" {
		cfg.Classifier.Provider = v
	}
	if v := os.Getenv("MIRADOR_SLO_CLASSIFIER_MODEL"); v != "" {
		cfg.Classifier.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" && cfg.Classifier.Region == "" {
		cfg.Classifier.Region = v
	}
	if v := os.Getenv("MIRADOR_SLO_CLASSIFIER_API_KEY"); v != "" {
		cfg.Classifier.APIKey = v
	}
	if v := os.Getenv("CLICKHOUSE_URL"); v != "" {
		cfg.Clients.Patterns.URL = v
	}
	if v := os.Getenv("CLICKHOUSE_DB"); v != "" {
		cfg.Clients.Patterns.Database = v
	}
	if v := os.Getenv("CLICKHOUSE_USER"); v != "" {
		cfg.Clients.Patterns.Username = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		cfg.Clients.Patterns.Password = v
	}
	if v := os.Getenv("JAVA_STATS_BASE_URL"); v != "" {
		cfg.Clients.Stats.BaseURL = v
	}
	if v := os.Getenv("JAVA_STATS_TOKEN_URL"); v != "" {
		cfg.Clients.Stats.TokenURL = v
	}
	if v := os.Getenv("JAVA_STATS_USERNAME"); v != "" {
		cfg.Clients.Stats.Username = v
	}
	if v := os.Getenv("JAVA_STATS_PASSWORD"); v != "" {
		cfg.Clients.Stats.Password = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.Endpoint = v
	}
	if v := os.Getenv("MIRADOR_SLO_OTEL_INSECURE"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Telemetry.Insecure = true
	}
	if v := os.Getenv("MIRADOR_SLO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MIRADOR_SLO_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}
