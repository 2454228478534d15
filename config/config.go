// CLAUDE:SUMMARY Immutable process configuration loaded from environment variables, plus the LLM model catalog.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoSessionToken is returned when SESSION_SECRET_TOKEN is unset;
	// the service cannot authenticate anyone without it.
	ErrNoSessionToken = errors.New("config: SESSION_SECRET_TOKEN is required")
)

// Model describes one entry of the LLM catalog. Prices are USD per
// million tokens.
type Model struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Provider    string  `json:"provider" yaml:"provider"`
	InputPrice  float64 `json:"inputPrice" yaml:"inputPrice"`
	OutputPrice float64 `json:"outputPrice" yaml:"outputPrice"`
	Description string  `json:"description,omitempty" yaml:"description"`
	IsDefault   bool    `json:"isDefault,omitempty" yaml:"isDefault"`
}

// Config holds everything the process reads from the environment.
// It is loaded once at startup and never mutated afterwards.
type Config struct {
	Port         string
	Host         string
	SessionToken string

	GoogleAPIKey  string
	GoogleCX      string
	OpenRouterKey string

	NumSources         int
	SearchTotalResults int
	DailyRequestLimit  int

	DataDir      string
	UsageBackend string // "file" or "sqlite"

	Models       []Model
	DefaultModel string

	LogLevel string
}

// Load reads the environment into a Config. Catalog problems degrade to
// the built-in fallback model; a missing session token is fatal.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               env("PORT", "3000"),
		Host:               env("SERVER_IP", "0.0.0.0"),
		SessionToken:       os.Getenv("SESSION_SECRET_TOKEN"),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GoogleCX:           os.Getenv("GOOGLE_CX"),
		OpenRouterKey:      os.Getenv("OPENROUTER_API_KEY"),
		NumSources:         envInt("NUM_SOURCES", 3),
		SearchTotalResults: envInt("SEARCH_TOTAL_RESULTS", 20),
		DailyRequestLimit:  envInt("DAILY_REQUEST_LIMIT", 10),
		DataDir:            env("DATA_DIR", "data"),
		UsageBackend:       env("USAGE_STORE", "file"),
		LogLevel:           env("LOG_LEVEL", "info"),
	}
	if cfg.SessionToken == "" {
		return nil, ErrNoSessionToken
	}

	models, err := loadCatalog(os.Getenv("AVAILABLE_MODELS"), os.Getenv("MODELS_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Models = models
	cfg.DefaultModel = resolveDefault(models, os.Getenv("DEFAULT_MODEL"))
	return cfg, nil
}

// ModelByID looks a model up in the catalog.
func (c *Config) ModelByID(id string) (Model, bool) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// DefaultModelConfig returns the effective default model. The catalog is
// never empty, so there is always one.
func (c *Config) DefaultModelConfig() Model {
	if m, ok := c.ModelByID(c.DefaultModel); ok {
		return m
	}
	for _, m := range c.Models {
		if m.IsDefault {
			return m
		}
	}
	return c.Models[0]
}

// fallbackModel is used when no valid catalog is configured, so the
// service stays usable out of the box.
func fallbackModel() []Model {
	return []Model{{
		ID:          "google/gemini-2.5-flash-preview-05-20:thinking",
		Name:        "Gemini 2.5 Flash Thinking",
		Provider:    "Google",
		InputPrice:  0.15,
		OutputPrice: 0.60,
		Description: "Thinking mode, best value",
		IsDefault:   true,
	}}
}

// loadCatalog parses the model catalog. A YAML file (MODELS_FILE) wins
// over the inline JSON (AVAILABLE_MODELS). Any parse or validation error
// falls back to the built-in model instead of failing startup.
func loadCatalog(jsonEnv, yamlPath string) ([]Model, error) {
	var (
		models []Model
		err    error
	)
	switch {
	case yamlPath != "":
		models, err = parseYAMLCatalog(yamlPath)
	case jsonEnv != "":
		err = json.Unmarshal([]byte(jsonEnv), &models)
	default:
		err = errors.New("config: no model catalog configured")
	}
	if err == nil {
		err = validateCatalog(models)
	}
	if err != nil {
		// Degraded but functional, matching the documented behavior.
		return fallbackModel(), nil
	}
	return models, nil
}

func parseYAMLCatalog(path string) ([]Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read models file: %w", err)
	}
	var doc struct {
		Models []Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse models file: %w", err)
	}
	if len(doc.Models) > 0 {
		return doc.Models, nil
	}
	// Also accept a bare top-level list.
	var list []Model
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("config: parse models file: %w", err)
	}
	return list, nil
}

func validateCatalog(models []Model) error {
	if len(models) == 0 {
		return errors.New("config: model catalog must be a non-empty array")
	}
	for _, m := range models {
		if m.ID == "" || m.Name == "" || m.Provider == "" {
			return fmt.Errorf("config: invalid model entry %q", m.ID)
		}
	}
	return nil
}

// resolveDefault picks the effective default model id:
// env override > isDefault flag > first entry.
func resolveDefault(models []Model, envDefault string) string {
	if envDefault != "" {
		return envDefault
	}
	for _, m := range models {
		if m.IsDefault {
			return m.ID
		}
	}
	return models[0].ID
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
