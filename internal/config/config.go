package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"waste-analytics-service/internal/model"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type DatasetConfig struct {
	Sources       map[model.Dataset]string
	FetchTimeout  time.Duration
	MaxRetries    int
	KeepSnapshots int
}

type AnalyticsConfig struct {
	AffordabilityBenchmark float64
	OperatingDaysPerMonth  int
}

type AIConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Datasets    DatasetConfig
	Analytics   AnalyticsConfig
	AI          AIConfig
}

func Load() (*Config, error) {
	v := newViper()
	_ = v.ReadInConfig()

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatasets reads only the dataset and analytics settings; the CLI does
// not need a database or a token secret.
func LoadDatasets() *Config {
	v := newViper()
	_ = v.ReadInConfig()

	cfg := fromViper(v)
	applyDefaults(cfg)
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()
	return v
}

func datasetKey(ds model.Dataset) string {
	return "DATASET_" + strings.ToUpper(string(ds)) + "_URL"
}

func fromViper(v *viper.Viper) *Config {
	sources := make(map[model.Dataset]string, len(model.AllDatasets))
	for _, ds := range model.AllDatasets {
		if src := strings.TrimSpace(v.GetString(datasetKey(ds))); src != "" {
			sources[ds] = src
		}
	}

	return &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Datasets: DatasetConfig{
			Sources:       sources,
			FetchTimeout:  v.GetDuration("DATASET_FETCH_TIMEOUT"),
			MaxRetries:    v.GetInt("DATASET_MAX_RETRIES"),
			KeepSnapshots: v.GetInt("DATASET_KEEP_SNAPSHOTS"),
		},
		Analytics: AnalyticsConfig{
			AffordabilityBenchmark: v.GetFloat64("ANALYTICS_AFFORDABILITY_BENCHMARK"),
			OperatingDaysPerMonth:  v.GetInt("ANALYTICS_OPERATING_DAYS_PER_MONTH"),
		},
		AI: AIConfig{
			Endpoint: v.GetString("AI_ENDPOINT"),
			APIKey:   v.GetString("AI_API_KEY"),
			Model:    v.GetString("AI_MODEL"),
			Timeout:  v.GetDuration("AI_TIMEOUT"),
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Datasets.FetchTimeout <= 0 {
		cfg.Datasets.FetchTimeout = 30 * time.Second
	}
	if cfg.Datasets.MaxRetries <= 0 {
		cfg.Datasets.MaxRetries = 3
	}
	if cfg.Datasets.KeepSnapshots <= 0 {
		cfg.Datasets.KeepSnapshots = 5
	}
	if cfg.Analytics.AffordabilityBenchmark <= 0 {
		cfg.Analytics.AffordabilityBenchmark = 4.9
	}
	if cfg.Analytics.OperatingDaysPerMonth <= 0 {
		cfg.Analytics.OperatingDaysPerMonth = 26
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 2 * time.Minute
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Datasets.Sources[model.DatasetTrips] == "" {
		return fmt.Errorf("%s is required", datasetKey(model.DatasetTrips))
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
