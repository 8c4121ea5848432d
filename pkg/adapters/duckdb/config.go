package duckdb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration, decoded from adapter.Config.Params.
type Params struct {
	// Extensions to install and load, e.g. "httpfs" for s3:// CSV sources.
	Extensions []string `mapstructure:"extensions"`

	// Secrets for cloud storage authentication.
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings applied at session level, e.g. memory_limit or threads.
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Type: "s3", "gcs", "azure", "r2"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", ...
	Provider string `mapstructure:"provider"`

	Region   string `mapstructure:"region,omitempty"`
	Scope    any    `mapstructure:"scope,omitempty"`
	KeyID    string `mapstructure:"key_id,omitempty"`
	Secret   string `mapstructure:"secret,omitempty"`
	Endpoint string `mapstructure:"endpoint,omitempty"`
	URLStyle string `mapstructure:"url_style,omitempty"`
	UseSSL   *bool  `mapstructure:"use_ssl,omitempty"`
}

func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// setupStatements returns the statements that apply p to a fresh connection,
// in execution order: extensions, then settings (sorted by name), then secrets.
func (p *Params) setupStatements() []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET %s = %s", k, quote(p.Settings[k])))
	}

	for i, s := range p.Secrets {
		stmts = append(stmts, s.createStatement(i))
	}
	return stmts
}

func (s SecretConfig) createStatement(i int) string {
	opts := []string{"TYPE " + s.Type}
	add := func(key, val string) {
		if val != "" {
			opts = append(opts, key+" "+quote(val))
		}
	}
	if s.Provider != "" {
		opts = append(opts, "PROVIDER "+s.Provider)
	}
	add("REGION", s.Region)
	add("KEY_ID", s.KeyID)
	add("SECRET", s.Secret)
	add("ENDPOINT", s.Endpoint)
	add("URL_STYLE", s.URLStyle)
	if s.UseSSL != nil {
		opts = append(opts, fmt.Sprintf("USE_SSL %t", *s.UseSSL))
	}
	switch scope := s.Scope.(type) {
	case string:
		add("SCOPE", scope)
	case []any:
		parts := make([]string, 0, len(scope))
		for _, v := range scope {
			parts = append(parts, quote(fmt.Sprint(v)))
		}
		opts = append(opts, "SCOPE ["+strings.Join(parts, ", ")+"]")
	}
	return fmt.Sprintf("CREATE OR REPLACE SECRET loanprep_%s_%d (%s)", s.Type, i, strings.Join(opts, ", "))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
