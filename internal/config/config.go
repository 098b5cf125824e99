package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/clipscribe/internal/common"
)

// Config is the root configuration loaded from YAML.
type Config struct {
	API          APIConfig     `yaml:"api"`
	LogLevel     string        `yaml:"logLevel"`     // debug|info|warn|error
	MaxImageSize ByteSize      `yaml:"maxImageSize"` // warn threshold for clipboard buffers
	History      HistoryConfig `yaml:"history"`
}

// APIConfig holds the chat completion endpoint settings.
type APIConfig struct {
	URL            string        `yaml:"url"`
	Token          string        `yaml:"token"` // supports env expansion
	Model          string        `yaml:"model"`
	MaxTokens      int           `yaml:"maxTokens"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// HistoryConfig controls the optional extraction history database.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"databasePath"` // optional, defaults to <config dir>/history.db
}

// PlaceholderToken is the value written into a freshly scaffolded config.
const PlaceholderToken = "YOUR_API_TOKEN_HERE" // #nosec G101 - placeholder, not a credential

// Sentinel conditions the CLI treats as informational rather than failures.
var (
	// ErrConfigCreated signals that no config existed and a default one was
	// written; the user has to fill in their API details before a first run.
	ErrConfigCreated = errors.New("configuration file created")
	// ErrPlaceholderToken signals the config still carries the placeholder.
	ErrPlaceholderToken = errors.New("api token is still the placeholder")
)

const defaultConfigContent = `# Configuration for clipscribe
# Get API URL and token from your OpenAI-compatible provider
api:
  url: "https://api.openai.com/v1/chat/completions"
  token: "` + PlaceholderToken + `"
  # Optional: model name (defaults to ` + common.DefaultModel + ` if unset)
  # model: "` + common.DefaultModel + `"
  # Optional: max tokens for the response (defaults to 1024 if unset)
  # maxTokens: 1024
  # Optional: HTTP request timeout (defaults to 60s if unset)
  # requestTimeout: 60s

# Optional: log verbosity on stderr (debug|info|warn|error, defaults to warn)
# logLevel: warn

# Optional: warn when the clipboard buffer exceeds this size
# maxImageSize: 64Mi

# Optional: record each invocation in a local SQLite database
# history:
#   enabled: true
`

// DefaultPath returns the per-user config file location, creating the
// application config directory if needed.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, common.AppName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", dir, err)
	}
	return filepath.Join(dir, common.ConfigFileName), nil
}

// Load reads YAML config from path, expands environment variables, applies
// defaults and validates. An empty path means the per-user default
// location; if no file exists there yet, a commented default config is
// written and ErrConfigCreated returned so the CLI can guide the user.
func Load(path string) (*Config, error) {
	defaulted := false
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
		defaulted = true
	}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 - reading sanitized config file path is expected
	if err != nil {
		if os.IsNotExist(err) && defaulted {
			if werr := os.WriteFile(cleanPath, []byte(defaultConfigContent), 0o600); werr != nil {
				return nil, fmt.Errorf("write default config to %s: %w", cleanPath, werr)
			}
			return nil, fmt.Errorf("%w at %s; please edit it with your API details", ErrConfigCreated, cleanPath)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables in file content.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg, filepath.Dir(cleanPath))

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config, configDir string) {
	if strings.TrimSpace(cfg.API.Model) == "" {
		cfg.API.Model = common.DefaultModel
	}
	if cfg.API.MaxTokens <= 0 {
		cfg.API.MaxTokens = common.DefaultMaxTokens
	}
	if cfg.API.RequestTimeout == 0 {
		cfg.API.RequestTimeout = 60 * time.Second
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.History.Enabled && cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = filepath.Join(configDir, common.HistoryDBName)
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.API.URL) == "" {
		return errors.New("api.url is required")
	}
	token := strings.TrimSpace(cfg.API.Token)
	if token == "" || token == PlaceholderToken {
		return fmt.Errorf("%w; set api.token in the config file", ErrPlaceholderToken)
	}
	return nil
}

// ParseLogLevel maps the configured level string onto slog levels,
// defaulting to warn for anything unrecognized.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ByteSize represents a size in bytes that unmarshals from strings like "10Mi", "20MB", "512KiB", "1024".
type ByteSize uint64

// UnmarshalYAML implements yaml unmarshalling for ByteSize.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		str := strings.TrimSpace(value.Value)
		parsed, err := ParseByteSize(str)
		if err != nil {
			return err
		}
		*b = ByteSize(parsed)
		return nil
	}
	return fmt.Errorf("invalid bytesize node kind: %v", value.Kind)
}

var reNumeric = regexp.MustCompile(`^\d+$`)

// ParseByteSize parses a string like "10Mi", "20MB", "512KiB", "1024" into bytes.
// Supports Kubernetes-style quantities for binary units: Ki, Mi, Gi (case-insensitive).
// Also accepts KiB/MiB/GiB and decimal KB/MB/GB, and bare bytes.
func ParseByteSize(s string) (uint64, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size")
	}
	if reNumeric.MatchString(s) {
		val, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size number: %w", err)
		}
		return val, nil
	}

	// Normalize to upper for suffix matching but keep numeric part as-is
	up := strings.ToUpper(s)

	type unit struct {
		suffix string
		value  uint64
	}
	units := []unit{
		// Kubernetes binary-style without 'B'
		{"KI", 1024},
		{"MI", 1024 * 1024},
		{"GI", 1024 * 1024 * 1024},
		// Binary with B
		{"KIB", 1024},
		{"MIB", 1024 * 1024},
		{"GIB", 1024 * 1024 * 1024},
		// Decimal
		{"KB", 1000},
		{"MB", 1000 * 1000},
		{"GB", 1000 * 1000 * 1000},
		{"B", 1},
	}
	for _, u := range units {
		if strings.HasSuffix(up, u.suffix) {
			num := strings.TrimSpace(s[:len(s)-len(u.suffix)])
			val, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid size number in %q: %w", orig, err)
			}
			return uint64(val * float64(u.value)), nil
		}
	}
	return 0, fmt.Errorf("unknown size suffix in %q", orig)
}
