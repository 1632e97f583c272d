// Package config provides configuration management for commit-reflect.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

const (
	// DefaultPort is the loopback port the notification listener binds.
	DefaultPort = 9123

	// DefaultMaxConns caps concurrent listener connections.
	DefaultMaxConns = 4

	dataDirName   = ".commit-reflect"
	settingsFile  = "settings.json"
	questionsFile = "questions.yaml"
	dbFile        = "reflections.db"
	jsonlFile     = "reflections.jsonl"
)

// DefaultStorageBackends is the backend order used when settings do not
// override it. JSONL first: it is the append-only source of truth.
var DefaultStorageBackends = []string{"jsonl", "sqlite"}

// Config holds runtime configuration loaded from settings.json.
type Config struct {
	Port            int
	MaxConns        int
	StorageBackends []string
	JSONLPath       string
	DBPath          string
	QuestionsPath   string
	Debug           bool
}

var (
	cached       *Config
	cachedMu     sync.Mutex
	settingsPath string
	settingsMu   sync.Mutex
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		MaxConns:        DefaultMaxConns,
		StorageBackends: DefaultStorageBackends,
		JSONLPath:       JSONLPath(),
		DBPath:          DBPath(),
		QuestionsPath:   QuestionsPath(),
	}
}

// DataDir returns the commit-reflect data directory (~/.commit-reflect).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// SettingsPath returns the path to settings.json, honoring any override
// set with SetSettingsPath.
func SettingsPath() string {
	settingsMu.Lock()
	override := settingsPath
	settingsMu.Unlock()
	if override != "" {
		return override
	}
	return filepath.Join(DataDir(), settingsFile)
}

// SetSettingsPath points Load at an alternate settings file and drops the
// cached configuration. An empty path restores the default location.
func SetSettingsPath(path string) {
	settingsMu.Lock()
	settingsPath = path
	settingsMu.Unlock()
	cachedMu.Lock()
	cached = nil
	cachedMu.Unlock()
}

// QuestionsPath returns the path to the optional custom question set.
func QuestionsPath() string {
	return filepath.Join(DataDir(), questionsFile)
}

// DBPath returns the SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFile)
}

// JSONLPath returns the JSONL storage path.
func JSONLPath() string {
	return filepath.Join(DataDir(), jsonlFile)
}

// Load reads settings.json and merges it over defaults. A missing or
// malformed settings file yields defaults rather than an error: the tool
// must keep working with a broken settings file.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		return cfg, nil
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return cfg, nil
	}

	if v, ok := settings["COMMIT_REFLECT_PORT"].(float64); ok && int(v) > 0 {
		cfg.Port = int(v)
	}
	if v, ok := settings["COMMIT_REFLECT_MAX_CONNS"].(float64); ok && int(v) > 0 {
		cfg.MaxConns = int(v)
	}
	if v, ok := settings["COMMIT_REFLECT_STORAGE"].(string); ok {
		if backends := splitTrim(v); len(backends) > 0 {
			cfg.StorageBackends = backends
		}
	}
	if v, ok := settings["COMMIT_REFLECT_JSONL_PATH"].(string); ok && v != "" {
		cfg.JSONLPath = v
	}
	if v, ok := settings["COMMIT_REFLECT_DB_PATH"].(string); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := settings["COMMIT_REFLECT_QUESTIONS_PATH"].(string); ok && v != "" {
		cfg.QuestionsPath = v
	}
	if v, ok := settings["COMMIT_REFLECT_DEBUG"].(bool); ok {
		cfg.Debug = v
	}

	return cfg, nil
}

// Get returns the cached configuration, loading it on first use.
func Get() *Config {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	if cached == nil {
		cached, _ = Load()
	}
	return cached
}

// Reset clears the cached configuration so the next Get reloads it.
// Used after settings.json changes on disk.
func Reset() {
	cachedMu.Lock()
	cached = nil
	cachedMu.Unlock()
}

// GetPort returns the listener port, preferring the COMMIT_REFLECT_PORT
// environment variable over settings.
func GetPort() int {
	if env := os.Getenv("COMMIT_REFLECT_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil && port > 0 {
			return port
		}
	}
	return Get().Port
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings.json if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	defaults := map[string]any{
		"COMMIT_REFLECT_PORT":      DefaultPort,
		"COMMIT_REFLECT_MAX_CONNS": DefaultMaxConns,
		"COMMIT_REFLECT_STORAGE":   strings.Join(DefaultStorageBackends, ","),
	}
	data, err := json.MarshalIndent(defaults, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll initializes the data directory and settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// splitTrim splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitTrim(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
