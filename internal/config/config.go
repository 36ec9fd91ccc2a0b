package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/andreyvit/mirror"
	"github.com/andreyvit/mirror/keyexpr"
	"github.com/andreyvit/mirror/store"
)

const (
	BackendBolt   = "bolt"
	BackendBadger = "badger"
	BackendMem    = "mem"
)

type Config struct {
	Backend  string                `yaml:"backend"`
	Path     string                `yaml:"path"`
	Verbose  bool                  `yaml:"verbose"`
	LogLevel string                `yaml:"log_level"`
	Mine     bool                  `yaml:"mine"`
	Types    map[string]TypeConfig `yaml:"types"`
}

// TypeConfig describes the model type of one collection.
type TypeConfig struct {
	Private     []string `yaml:"private"`
	Unique      []string `yaml:"unique"`
	UniqueKey   string   `yaml:"unique_key"`
	UniqueScope string   `yaml:"unique_scope"`
}

// Load reads a YAML config file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Backend == "" {
		cfg.Backend = BackendBolt
	}
	if cfg.Path == "" {
		switch cfg.Backend {
		case BackendBolt:
			cfg.Path = "mirror.db"
		case BackendBadger:
			cfg.Path = "mirror.badger"
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	for name, tc := range cfg.Types {
		if tc.UniqueScope == "" {
			tc.UniqueScope = mirror.UniquePerCollection.String()
			cfg.Types[name] = tc
		}
	}
}

func (cfg *Config) validate() error {
	switch cfg.Backend {
	case BackendBolt, BackendBadger, BackendMem:
	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return err
	}
	for _, name := range cfg.TypeNames() {
		tc := cfg.Types[name]
		if _, err := parseScope(tc.UniqueScope); err != nil {
			return fmt.Errorf("types.%s: %w", name, err)
		}
		for _, f := range append(append([]string(nil), tc.Private...), tc.Unique...) {
			if err := store.ValidateKey(f); err != nil {
				return fmt.Errorf("types.%s: invalid field: %w", name, err)
			}
		}
	}
	return nil
}

// TypeNames returns the configured collections in sorted order.
func (cfg *Config) TypeNames() []string {
	names := make([]string, 0, len(cfg.Types))
	for name := range cfg.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (cfg *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// ModelType builds the model type of a collection. Collections without an
// entry get a type with no private or unique fields.
func (cfg *Config) ModelType(collection string) (*mirror.ModelType, error) {
	typ := mirror.DefineType(collection)
	tc, ok := cfg.Types[collection]
	if !ok {
		return typ, nil
	}
	scope, err := parseScope(tc.UniqueScope)
	if err != nil {
		return nil, fmt.Errorf("types.%s: %w", collection, err)
	}
	typ.Private(tc.Private...).Unique(tc.Unique...).Scope(scope)
	if tc.UniqueKey != "" {
		p, err := keyexpr.Compile(tc.UniqueKey)
		if err != nil {
			return nil, fmt.Errorf("types.%s.unique_key: %w", collection, err)
		}
		typ.UniqueKey(p.UniqueKeyFunc())
	}
	return typ, nil
}

// OpenStore opens the configured backend.
func (cfg *Config) OpenStore(logger *slog.Logger) (*store.DB, error) {
	opt := store.Options{Logger: logger, Verbose: cfg.Verbose}
	switch cfg.Backend {
	case BackendBolt:
		return store.OpenBolt(cfg.Path, opt)
	case BackendBadger:
		return store.OpenBadger(cfg.Path, opt)
	case BackendMem:
		return store.NewMem(opt), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func parseScope(s string) (mirror.UniqueScope, error) {
	switch s {
	case "", mirror.UniquePerCollection.String():
		return mirror.UniquePerCollection, nil
	case mirror.UniquePerRecord.String():
		return mirror.UniquePerRecord, nil
	default:
		return 0, fmt.Errorf("unknown unique_scope %q", s)
	}
}
