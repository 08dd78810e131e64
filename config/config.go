package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Data     DataConfig     `yaml:"data"`
	Workflow WorkflowConfig `yaml:"workflow"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

// LLMConfig carries instance-level fallback credentials used when an owner
// has not stored their own API keys.
type LLMConfig struct {
	OpenAI       ProviderConfig `yaml:"openai"`
	Anthropic    ProviderConfig `yaml:"anthropic"`
	DefaultModel string         `yaml:"default_model"`
	MaxTokens    int            `yaml:"max_tokens"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

type WorkflowConfig struct {
	MaxWorkers   int           `yaml:"max_workers"`
	StuckTimeout time.Duration `yaml:"stuck_timeout"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func loadConfig() *Config {
	config := &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		LLM: LLMConfig{
			OpenAI: ProviderConfig{
				BaseURL: "https://api.openai.com/v1",
			},
			Anthropic: ProviderConfig{
				BaseURL: "https://api.anthropic.com/v1",
			},
			DefaultModel: "gpt-4o",
			MaxTokens:    4096,
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Workflow: WorkflowConfig{
			MaxWorkers:   2,
			StuckTimeout: 10 * time.Minute,
		},
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	// Environment variables take precedence over the config file.
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.OpenAI.BaseURL = baseURL
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.LLM.Anthropic.APIKey = apiKey
	}
	if baseURL := os.Getenv("ANTHROPIC_BASE_URL"); baseURL != "" {
		config.LLM.Anthropic.BaseURL = baseURL
	}
	if model := os.Getenv("DEFAULT_MODEL_NAME"); model != "" {
		config.LLM.DefaultModel = model
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}

	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	return config
}
