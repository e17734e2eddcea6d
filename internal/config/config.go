package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zrougamed/cerberus-watch/internal/backend"
	"github.com/zrougamed/cerberus-watch/internal/databases"
	"github.com/zrougamed/cerberus-watch/internal/eventlog"
	"github.com/zrougamed/cerberus-watch/internal/logger"
	"github.com/zrougamed/cerberus-watch/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBackendURL = "http://localhost:5000"
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultPrefsPath  = "./data/prefs.db"
	DefaultLogLevel   = "info"
	DefaultLocale     = "en"
)

type BackendConfig struct {
	URL          string        `yaml:"url"`
	StartPath    string        `yaml:"start_path"`
	StreamPath   string        `yaml:"stream_path"`
	StartTimeout time.Duration `yaml:"start_timeout"` // 0 waits indefinitely
}

// Config is the root configuration structure
type Config struct {
	Backend   BackendConfig      `yaml:"backend"`
	Listen    string             `yaml:"listen"` // empty disables the operator API
	Prefs     string             `yaml:"prefs"`  // empty keeps preferences in memory
	Console   bool               `yaml:"console"`
	LogLevel  string             `yaml:"log_level"`
	Locale    string             `yaml:"locale"`
	LogSize   int                `yaml:"event_log_capacity"`
	Topology  databases.Topology `yaml:"topology"`
	AutoStart int                `yaml:"auto_start"` // seconds; 0 waits for the operator
}

func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:        DefaultBackendURL,
			StartPath:  backend.DEFAULT_START_PATH,
			StreamPath: backend.DEFAULT_STREAM_PATH,
		},
		Listen:   DefaultListenAddr,
		Prefs:    DefaultPrefsPath,
		Console:  true,
		LogLevel: DefaultLogLevel,
		Locale:   DefaultLocale,
		LogSize:  eventlog.DEFAULT_CAPACITY,
		Topology: databases.LoadDefaultTopology(),
	}
}

// LoadConfig reads path over the defaults. Sections missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	cfg.Topology = databases.Topology{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(cfg.Topology.Hosts) == 0 {
		attacker := cfg.Topology.Attacker
		cfg.Topology = databases.LoadDefaultTopology()
		if attacker != "" {
			cfg.Topology.Attacker = attacker
		}
	} else if cfg.Topology.Attacker == "" {
		cfg.Topology.Attacker = databases.DEFAULT_ATTACKER
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.URL) == "" {
		return fmt.Errorf("backend url is required")
	}
	if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
		return fmt.Errorf("backend url %q must start with http:// or https://", c.Backend.URL)
	}
	if c.Backend.StartTimeout < 0 {
		return fmt.Errorf("start_timeout must not be negative")
	}
	if c.LogSize < 1 {
		return fmt.Errorf("event_log_capacity must be at least 1, got %d", c.LogSize)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.AutoStart != 0 && (c.AutoStart < models.MIN_DURATION || c.AutoStart > models.MAX_DURATION) {
		return fmt.Errorf("auto_start must be between %d and %d seconds, got %d",
			models.MIN_DURATION, models.MAX_DURATION, c.AutoStart)
	}
	if err := c.Topology.Validate(); err != nil {
		return fmt.Errorf("invalid topology: %w", err)
	}
	return nil
}

// BackendClientConfig converts the backend section for backend.NewClient.
func (c *Config) BackendClientConfig() backend.Config {
	return backend.Config{
		BaseURL:      c.Backend.URL,
		StartPath:    c.Backend.StartPath,
		StreamPath:   c.Backend.StreamPath,
		StartTimeout: c.Backend.StartTimeout,
	}
}

// Loader handles parsing of command-line flags and config file loading.
// It can be instantiated with a custom FlagSet for testing.
type Loader struct {
	fs         *flag.FlagSet
	configPath *string
	backendURL *string
	listen     *string
	prefs      *string
	logLevel   *string
	duration   *int
	noConsole  *bool
}

// NewLoader creates a new Loader with flags registered on the provided FlagSet.
// If fs is nil, the default flag.CommandLine is used.
func NewLoader(fs *flag.FlagSet) *Loader {
	if fs == nil {
		fs = flag.CommandLine
	}
	l := &Loader{fs: fs}
	l.configPath = fs.String("config", "", "Path to YAML config file")
	l.backendURL = fs.String("backend", DefaultBackendURL, "Simulation backend base URL")
	l.listen = fs.String("listen", DefaultListenAddr, "Operator API listen address (empty disables it)")
	l.prefs = fs.String("prefs", DefaultPrefsPath, "Operator preferences database (empty keeps them in memory)")
	l.logLevel = fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	l.duration = fs.Int("duration", 0, "Start a simulation of this many seconds at launch")
	l.noConsole = fs.Bool("no-console", false, "Disable the terminal dashboard")
	return l
}

// Load parses the flags (if not already parsed) and returns a validated
// Config. Values from --config are the base; flags given explicitly on the
// command line override them.
func (l *Loader) Load(args []string) (*Config, error) {
	if !l.fs.Parsed() {
		if err := l.fs.Parse(args); err != nil {
			return nil, fmt.Errorf("failed to parse flags: %w", err)
		}
	}

	cfg := Default()
	if *l.configPath != "" {
		loaded, err := LoadConfig(*l.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	set := make(map[string]bool)
	l.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["backend"] || *l.configPath == "" {
		cfg.Backend.URL = *l.backendURL
	}
	if set["listen"] || *l.configPath == "" {
		cfg.Listen = *l.listen
	}
	if set["prefs"] || *l.configPath == "" {
		cfg.Prefs = *l.prefs
	}
	if set["log-level"] || *l.configPath == "" {
		cfg.LogLevel = *l.logLevel
	}
	if set["duration"] {
		cfg.AutoStart = *l.duration
	}
	if *l.noConsole {
		cfg.Console = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get is a convenience function that creates a Loader with default flags,
// parses os.Args[1:], and returns the Config.
// It panics on error.
func Get() *Config {
	loader := NewLoader(nil)
	cfg, err := loader.Load(os.Args[1:])
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return cfg
}
