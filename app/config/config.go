package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const (
	defaultPath = "config.yaml"
	pathEnv     = "HISTORYDASH_CONFIG"
)

type Config struct {
	Log     Log     `yaml:"log"`
	HTTP    HTTP    `yaml:"http"`
	LLM     LLM     `yaml:"llm"`
	Extract Extract `yaml:"extract"`
	Data    Data    `yaml:"data"`
}

type Log struct {
	// Minimal log level: debug, info, warn or error
	Level string `yaml:"level" example:"debug" validate:"omitempty,oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

type HTTP struct {
	// Listen address of the API server
	Addr string `yaml:"addr" example:"127.0.0.1:8080" validate:"required"`
	// Read/write timeout of a single request
	Timeout time.Duration `yaml:"timeout" example:"90s" validate:"required"`
	// Expose the MCP tool server on /mcp
	EnableMCP bool `yaml:"enable_mcp" example:"true"`
}

type LLM struct {
	// OpenAI compatible base url
	BaseURL string `yaml:"base_url" example:"https://generativelanguage.googleapis.com/v1beta/openai" validate:"required,url"`
	// API token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// Model name
	Model string `yaml:"model" example:"gemini-2.5-flash" validate:"required"`
	// Sampling temperature
	Temperature float64 `yaml:"temperature" example:"0.2" validate:"gte=0,lte=2"`
}

type Extract struct {
	// Upper bound for a single extraction call
	Timeout time.Duration `yaml:"timeout" example:"60s" validate:"required"`
	// What to do with a connection whose target title is unknown: stub or skip
	UnresolvedPolicy string `yaml:"unresolved_policy" example:"stub" validate:"required,oneof=stub skip"`
	// Maximum accepted input text length in bytes
	MaxTextLength int `yaml:"max_text_length" example:"20000" validate:"gt=0"`
}

type Data struct {
	// Directory for layout snapshots
	Dir string `yaml:"dir" example:"data" validate:"required"`
	// Export document loaded into the store on startup
	SeedFile string `yaml:"seed_file" example:"historical_data.json"`
	// File name of the node position snapshot inside Dir
	LayoutFile string `yaml:"layout_file" example:"graph_layout.json" validate:"required"`
	// Pending snapshot writes kept before new ones are dropped
	QueueSize int `yaml:"queue_size" example:"16" validate:"gt=0"`
}

func Load() (*Config, error) {
	path := os.Getenv(pathEnv)
	if path == "" {
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var result Config

	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Log.Level == "" {
		result.Log.Level = "debug"
	}
	if result.HTTP.Addr == "" {
		result.HTTP.Addr = "127.0.0.1:8080"
	}
	if result.HTTP.Timeout == 0 {
		result.HTTP.Timeout = 90 * time.Second
	}
	if result.LLM.BaseURL == "" {
		result.LLM.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	if result.LLM.Model == "" {
		result.LLM.Model = "gemini-2.5-flash"
	}
	if result.Extract.Timeout == 0 {
		result.Extract.Timeout = time.Minute
	}
	if result.Extract.UnresolvedPolicy == "" {
		result.Extract.UnresolvedPolicy = "stub"
	}
	if result.Extract.MaxTextLength == 0 {
		result.Extract.MaxTextLength = 20000
	}
	if result.Data.Dir == "" {
		result.Data.Dir = "data"
	}
	if result.Data.LayoutFile == "" {
		result.Data.LayoutFile = "graph_layout.json"
	}
	if result.Data.QueueSize == 0 {
		result.Data.QueueSize = 16
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
