package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "loanprep.yaml"
	ConfigFileNameAlt = "loanprep.yml"
)

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "LOANPREP_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// sections are the nested config keys addressable from environment variables,
// e.g. LOANPREP_TARGET_PASSWORD -> target.password.
var sections = []string{"target", "source", "sink", "training"}

// flagKeys maps command-line flag names to config keys. Flags not listed here
// are command options and never enter the configuration.
var flagKeys = map[string]string{
	"state":         "state_path",
	"env":           "environment",
	"verbose":       "verbose",
	"log-format":    "log_format",
	"metrics":       "metrics_path",
	"target":        "target.type",
	"database":      "target.database",
	"source-table":  "source.table",
	"sink-table":    "sink.table",
	"output-csv":    "sink.csv_path",
	"test-size":     "training.test_size",
	"threshold":     "training.threshold",
	"learning-rate": "training.learning_rate",
	"epochs":        "training.epochs",
	"seed":          "training.seed",
}

// Load loads configuration from defaults, the config file, environment
// variables, and flags. Precedence (highest to lowest): flags > env vars >
// environments.<environment> overrides > config file > defaults.
//
// When cfgFile is empty, loanprep.yaml or loanprep.yml is searched for upward
// from the working directory. Relative paths in the file are resolved against
// the file's directory; relative paths given as flags against the working
// directory.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	} else if _, err := os.Stat(cfgFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
	}
	projectRoot := cwd
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
			projectRoot = filepath.Dir(abs)
		}
	}

	// The environment name can itself come from any layer, so the layers are
	// loaded once to resolve it and again with its overrides applied.
	k, err := loadLayers(cfgFile, "", flags)
	if err != nil {
		return nil, err
	}
	if name := k.String("environment"); name != "" {
		if k, err = loadLayers(cfgFile, name, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{Type: DefaultTargetType}
	}
	cfg.Target.Type = strings.ToLower(cfg.Target.Type)
	expandTargetEnvVars(cfg.Target)
	ApplyTargetDefaults(cfg.Target)
	resolvePaths(&cfg, flags, cwd)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadLayers(cfgFile, environment string, flags *pflag.FlagSet) (*koanf.Koanf, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, then its environments.<name> block
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if environment != "" {
			if override := k.Cut("environments." + environment); len(override.Keys()) > 0 {
				if err := k.Merge(override); err != nil {
					return nil, fmt.Errorf("failed to apply environment %q: %w", environment, err)
				}
			}
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}
	return k, nil
}

// envKey transforms LOANPREP_TARGET_PASSWORD -> target.password and
// LOANPREP_STATE_PATH -> state_path.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(key, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return key
}

// findConfigUpward searches upward from startDir for a loanprep config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePaths makes relative local paths absolute: flag values against the
// working directory, everything else against the project root.
func resolvePaths(cfg *Config, flags *pflag.FlagSet, cwd string) {
	paths := []struct {
		flag string
		path *string
	}{
		{"state", &cfg.StatePath},
		{"metrics", &cfg.MetricsPath},
		{"output-csv", &cfg.Sink.CSVPath},
		{"", &cfg.Source.CSVPath},
	}
	if cfg.Target.Type == "duckdb" {
		paths = append(paths, struct {
			flag string
			path *string
		}{"database", &cfg.Target.Database})
	}

	for _, p := range paths {
		base := cfg.ProjectRoot
		if p.flag != "" && flags != nil && flags.Changed(p.flag) {
			base = cwd
		}
		*p.path = resolvePathRelativeTo(*p.path, base)
	}
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's a local relative path.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) || strings.Contains(path, "://") || strings.HasPrefix(path, "md:") {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *TargetConfig) {
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

type loggerKey struct{}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

type configKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config stored by WithConfig, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(configKey{}).(*Config)
	return cfg
}
