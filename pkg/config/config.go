package config

import (
	"errors"
	"fmt"
	"go-toolrouter/pkg/models"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

type Config struct {
	Server         ServerConfig                    `yaml:"server"`
	Log            LogConfig                       `yaml:"log"`
	LLM            LLMConfig                       `yaml:"llm"`
	Catalog        CatalogConfig                   `yaml:"catalog"`
	Executor       ExecutorConfig                  `yaml:"executor"`
	Workflow       WorkflowConfig                  `yaml:"workflow"`
	ErrorTemplates map[models.ErrorCategory]string `yaml:"error_templates"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type LLMConfig struct {
	RouterModel      string  `yaml:"router_model"`
	AgentModel       string  `yaml:"agent_model"`
	AgentTemperature float64 `yaml:"agent_temperature"`
	AgentMaxTokens   int     `yaml:"agent_max_tokens"`
	OpenAIAPIKey     string  `yaml:"openai_api_key"`
	AnthropicAPIKey  string  `yaml:"anthropic_api_key"`
}

type CatalogConfig struct {
	DBPath         string `yaml:"db_path"`
	CollectionsDir string `yaml:"collections_dir"`
	// Embedder is "openai" or "hashing".
	Embedder       string `yaml:"embedder"`
	EmbeddingModel string `yaml:"embedding_model"`
	TopK           int    `yaml:"top_k"`
}

type ExecutorConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type WorkflowConfig struct {
	// Timeout bounds a whole run; it is the only cancellation granularity.
	Timeout time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Pretty: true},
		LLM: LLMConfig{
			RouterModel:      "gpt-3.5-turbo",
			AgentModel:       "claude-3-5-sonnet-20241022",
			AgentTemperature: 0.1,
			AgentMaxTokens:   4096,
		},
		Catalog: CatalogConfig{
			DBPath:         "./toolrouter.db",
			CollectionsDir: "./postman_collections",
			Embedder:       "openai",
			EmbeddingModel: "text-embedding-3-small",
			TopK:           10,
		},
		Executor: ExecutorConfig{
			Timeout:   30 * time.Second,
			UserAgent: "go-toolrouter/1.0",
		},
		Workflow: WorkflowConfig{Timeout: 2 * time.Minute},
	}
}

// Load reads path (optional) over the defaults and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.AnthropicAPIKey = v
	}
	if v := os.Getenv("TOOLROUTER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TOOLROUTER_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Executor.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("executor.timeout must be > 0, got %v", c.Executor.Timeout))
	}
	if c.Executor.UserAgent == "" {
		errs = append(errs, errors.New("executor.user_agent is required"))
	}
	if c.Workflow.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("workflow.timeout must be > 0, got %v", c.Workflow.Timeout))
	}
	if c.Catalog.TopK <= 0 {
		errs = append(errs, fmt.Errorf("catalog.top_k must be > 0, got %d", c.Catalog.TopK))
	}
	switch c.Catalog.Embedder {
	case "openai", "hashing":
	default:
		errs = append(errs, fmt.Errorf("catalog.embedder must be openai or hashing, got %q", c.Catalog.Embedder))
	}
	for category := range c.ErrorTemplates {
		if !knownCategory(category) {
			errs = append(errs, fmt.Errorf("error_templates: unknown category %q", category))
		}
	}
	return errors.Join(errs...)
}

func knownCategory(c models.ErrorCategory) bool {
	switch c {
	case models.ErrTimeout, models.ErrAuth, models.ErrNotFound, models.ErrInvalid, models.ErrRateLimit,
		models.ErrForbidden, models.ErrServer, models.ErrConnection, models.ErrUnknown:
		return true
	}
	return false
}
