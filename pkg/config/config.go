package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transport selects how the request reaches the model endpoint
type Transport string

const (
	// Direct posts with the built-in HTTP client
	Direct Transport = "direct"
	// Curl shells out to the curl binary
	Curl Transport = "curl"
)

// DefaultEndpoint is the chat-completions endpoint used when none is configured
const DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// Config represents the application configuration
type Config struct {
	// Model endpoint configuration
	AI struct {
		Endpoint         string    `yaml:"endpoint"`
		APIKey           string    `yaml:"api_key"`
		Model            string    `yaml:"model"`
		Temperature      float64   `yaml:"temperature"`
		MaxOutputTokens  int       `yaml:"max_output_tokens"`
		TimeoutMs        int       `yaml:"timeout_ms"`
		Transport        Transport `yaml:"transport"`
		LogRaw           bool      `yaml:"log_raw,omitempty"`          // Log the head of every raw response
		EndpointRewrite  bool      `yaml:"endpoint_rewrite,omitempty"` // Rewrite /api/v1/responses to /api/alpha/responses
		Referer          string    `yaml:"referer,omitempty"`
		Title            string    `yaml:"title,omitempty"`
		SystemPrompt     string    `yaml:"system_prompt,omitempty"`
		StructuredOutput bool      `yaml:"structured_output"` // Attach a JSON schema to the request
		Debug            bool      `yaml:"debug,omitempty"`
	} `yaml:"ai"`

	// Bounds on the context sent to the model
	Context struct {
		MaxPatchBytes        int      `yaml:"max_patch_bytes"`
		MaxFilePatchBytes    int      `yaml:"max_file_patch_bytes"`
		MaxPreviousCommits   int      `yaml:"max_previous_commits"`
		MaxOpenTabs          int      `yaml:"max_open_tabs"`
		MaxTerminalLines     int      `yaml:"max_terminal_lines"`
		MaxTreeEntries       int      `yaml:"max_tree_entries"`
		HeavyDiffMaxFiles    int      `yaml:"heavy_diff_max_files"`
		HeavyDiffMaxLines    int      `yaml:"heavy_diff_max_lines"`
		HeavyDiffMinHunks    int      `yaml:"heavy_diff_min_hunks"`
		MaxBlameHunks        int      `yaml:"max_blame_hunks"`
		MaxLoggedPromptChars int      `yaml:"max_logged_prompt_chars"`
		MaxPromptBytes       int      `yaml:"max_prompt_bytes"`
		MaxPromptTokens      int      `yaml:"max_prompt_tokens,omitempty"` // 0 uses the model's input limit
		Language             string   `yaml:"language"`                    // Narrative language, or "auto"
		IncludeGlobs         []string `yaml:"include_globs"`
		IgnoreGlobs          []string `yaml:"ignore_globs"`
		FullTree             bool     `yaml:"full_tree,omitempty"`
	} `yaml:"context"`

	// Pull request description configuration
	PR struct {
		BaseBranch    string `yaml:"base_branch,omitempty"` // Empty uses the remote default branch
		MaxCommits    int    `yaml:"max_commits"`
		MaxPatchBytes int    `yaml:"max_patch_bytes"`
	} `yaml:"pr"`

	// User interface configuration
	UI struct {
		ConfirmStageAll bool `yaml:"confirm_stage_all"` // Ask before staging everything when nothing is staged
	} `yaml:"ui"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.AI.Endpoint = DefaultEndpoint
	cfg.AI.Model = "google/gemini-2.5-flash-lite"
	cfg.AI.Temperature = 0.2
	cfg.AI.MaxOutputTokens = 800
	cfg.AI.TimeoutMs = 25000
	cfg.AI.Transport = Direct
	cfg.AI.Referer = "https://github.com/johnstilia/commitscope"
	cfg.AI.Title = "commitscope"
	cfg.AI.StructuredOutput = true

	cfg.Context.MaxPatchBytes = 50000
	cfg.Context.MaxFilePatchBytes = 12000
	cfg.Context.MaxPreviousCommits = 3
	cfg.Context.MaxOpenTabs = 10
	cfg.Context.MaxTerminalLines = 40
	cfg.Context.MaxTreeEntries = 400
	cfg.Context.HeavyDiffMaxFiles = 3
	cfg.Context.HeavyDiffMaxLines = 200
	cfg.Context.HeavyDiffMinHunks = 3
	cfg.Context.MaxBlameHunks = 20
	cfg.Context.MaxLoggedPromptChars = 2000
	cfg.Context.MaxPromptBytes = 120000
	cfg.Context.Language = "auto"
	cfg.Context.IncludeGlobs = []string{"**/*"}
	cfg.Context.IgnoreGlobs = []string{"**/*.lock", "dist/**", "build/**", "out/**", "**/*.svg", "**/*.png", "**/*.jpg"}

	cfg.PR.MaxCommits = 20
	cfg.PR.MaxPatchBytes = 60000

	cfg.UI.ConfirmStageAll = true

	return cfg
}

// Timeout returns the request timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutMs) * time.Millisecond
}

// Validate checks the settings the generation flow cannot run without
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AI.APIKey) == "" {
		return fmt.Errorf("ai.api_key is not set (or export %s)", EnvAPIKey)
	}
	u, err := url.Parse(c.AI.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ai.endpoint %q is not an absolute URL", c.AI.Endpoint)
	}
	switch c.AI.Transport {
	case Direct, Curl:
	default:
		return fmt.Errorf("ai.transport must be %q or %q, got %q", Direct, Curl, c.AI.Transport)
	}
	if c.AI.TimeoutMs <= 0 {
		return fmt.Errorf("ai.timeout_ms must be positive")
	}
	return nil
}

// ParseConfig parses a configuration from YAML data
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultPath returns ~/.commitscoperc
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".commitscoperc"), nil
}

// LoadConfig loads the configuration from ~/.commitscoperc
func LoadConfig() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		cfg := DefaultConfig()
		applyEnv(cfg)
		return cfg, err
	}
	return LoadConfigFromPath(configPath)
}

// LoadConfigFromPath loads configuration from a specified path, then applies
// a .env file in the working directory and COMMITSCOPE_* environment
// overrides. A missing file yields the defaults.
func LoadConfigFromPath(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, err
		}
		if cfg, err = ParseConfig(data); err != nil {
			return DefaultConfig(), fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	// The .env file is optional
	_ = godotenv.Load(".env")
	applyEnv(cfg)

	return cfg, nil
}

// Environment variables that override the file
const (
	EnvAPIKey    = "COMMITSCOPE_API_KEY"
	EnvEndpoint  = "COMMITSCOPE_ENDPOINT"
	EnvModel     = "COMMITSCOPE_MODEL"
	EnvTransport = "COMMITSCOPE_TRANSPORT"
	EnvTimeoutMs = "COMMITSCOPE_TIMEOUT_MS"
	EnvLanguage  = "COMMITSCOPE_LANGUAGE"
	EnvDebug     = "COMMITSCOPE_DEBUG"
)

func applyEnv(cfg *Config) {
	cfg.AI.APIKey = getEnv(EnvAPIKey, cfg.AI.APIKey)
	cfg.AI.Endpoint = getEnv(EnvEndpoint, cfg.AI.Endpoint)
	cfg.AI.Model = getEnv(EnvModel, cfg.AI.Model)
	cfg.AI.Transport = Transport(getEnv(EnvTransport, string(cfg.AI.Transport)))
	cfg.AI.TimeoutMs = getEnvAsInt(EnvTimeoutMs, cfg.AI.TimeoutMs)
	cfg.Context.Language = getEnv(EnvLanguage, cfg.Context.Language)
	cfg.AI.Debug = getEnvAsBool(EnvDebug, cfg.AI.Debug)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
}

// SaveExampleConfig saves an example configuration to the given path
func SaveExampleConfig(path string) error {
	cfg := DefaultConfig()

	cfg.AI.APIKey = "your-api-key-here"
	cfg.AI.SystemPrompt = ""

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	yamlWithComments := `# commitscope configuration file
# api_key may be left empty and supplied through ` + EnvAPIKey + ` instead.
# transport: direct uses the built-in HTTP client, curl shells out to curl.

` + string(data)

	return os.WriteFile(path, []byte(yamlWithComments), 0o600)
}
