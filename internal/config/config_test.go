package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loanprep/pkg/adapter"
	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/loanprep/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/loanprep/pkg/adapters/postgres"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("state", "", "")
	fs.String("env", "", "")
	fs.Bool("verbose", false, "")
	fs.String("sink-table", "", "")
	fs.String("database", "", "")
	fs.Float64("test-size", 0, "")
	fs.Int("limit", 10, "")
	return fs
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultEnv, cfg.Environment)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, filepath.Join(dir, DefaultDuckDBFile), cfg.Target.Database)
	assert.Equal(t, "main", cfg.Target.Schema)
	assert.Equal(t, DefaultSourceTable, cfg.Source.Table)
	assert.Equal(t, DefaultSinkTable, cfg.Sink.Table)

	opts := cfg.TrainingOptions()
	assert.InDelta(t, 0.2, opts.TestSize, 1e-12)
	assert.InDelta(t, 0.35, opts.Threshold, 1e-12)
	assert.Equal(t, 500, opts.Epochs)
	assert.Equal(t, uint64(42), opts.Seed)
	assert.True(t, opts.DropUnlabeled)
}

func TestLoad_FileFoundUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
state_path: state/history.db
source:
  table: loans_raw
  csv_path: data/credit_train.csv
sink:
  table: loans_clean
  csv_path: out/clean.csv
target:
  type: duckdb
  database: warehouse.duckdb
  params:
    settings:
      threads: 2
training:
  threshold: 0.5
  epochs: 50
`)
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ConfigFileName), cfg.ConfigFile)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "state", "history.db"), cfg.StatePath)
	assert.Equal(t, "loans_raw", cfg.Source.Table)
	assert.Equal(t, filepath.Join(root, "data", "credit_train.csv"), cfg.Source.CSVPath)
	assert.Equal(t, filepath.Join(root, "out", "clean.csv"), cfg.Sink.CSVPath)
	assert.Equal(t, filepath.Join(root, "warehouse.duckdb"), cfg.Target.Database)
	assert.Equal(t, "loans_clean", cfg.Sink.Table)
	assert.InDelta(t, 0.5, cfg.Training.Threshold, 1e-12)
	assert.Equal(t, 50, cfg.Training.Epochs)
	assert.InDelta(t, 0.2, cfg.Training.TestSize, 1e-12, "unset keys keep defaults")

	ac := cfg.Target.AdapterConfig()
	assert.Equal(t, cfg.Target.Database, ac.Path)
	assert.Contains(t, ac.Params, "settings")
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "sink:\n  table: from_file\n")

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load("", testFlags())
		require.NoError(t, err)
		assert.Equal(t, "from_file", cfg.Sink.Table)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("LOANPREP_SINK_TABLE", "from_env")
		t.Setenv("LOANPREP_TRAINING_EPOCHS", "7")
		cfg, err := Load("", testFlags())
		require.NoError(t, err)
		assert.Equal(t, "from_env", cfg.Sink.Table)
		assert.Equal(t, 7, cfg.Training.Epochs)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("LOANPREP_SINK_TABLE", "from_env")
		flags := testFlags()
		require.NoError(t, flags.Parse([]string{"--sink-table", "from_flag", "--test-size", "0.3", "--limit", "3"}))
		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, "from_flag", cfg.Sink.Table)
		assert.InDelta(t, 0.3, cfg.Training.TestSize, 1e-12)
	})
}

func TestLoad_FlagPathsRelativeToWorkingDir(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "state_path: from_file.db\n")
	sub := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--state", "custom.db", "--database", ":memory:"}))
	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(sub, "custom.db"), cfg.StatePath)
	assert.Equal(t, ":memory:", cfg.Target.Database)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `
target:
  type: duckdb
environments:
  prod:
    target:
      type: postgres
      host: ${LOANPREP_TEST_PG_HOST}
      database: loans
      user: etl
      password: ${LOANPREP_TEST_PG_PASSWORD}
      options:
        sslmode: require
    sink:
      table: loans_prod
`)
	t.Setenv("LOANPREP_TEST_PG_HOST", "db.internal")
	t.Setenv("LOANPREP_TEST_PG_PASSWORD", "s3cret")

	dev, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", dev.Target.Type)
	assert.Equal(t, DefaultSinkTable, dev.Sink.Table)

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--env", "prod"}))
	prod, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "prod", prod.Environment)
	assert.Equal(t, "postgres", prod.Target.Type)
	assert.Equal(t, "db.internal", prod.Target.Host)
	assert.Equal(t, "s3cret", prod.Target.Password)
	assert.Equal(t, "loans", prod.Target.Database, "postgres database names are not paths")
	assert.Equal(t, 5432, prod.Target.Port)
	assert.Equal(t, "public", prod.Target.Schema)
	assert.Equal(t, "require", prod.Target.Options["sslmode"])
	assert.Equal(t, "loans_prod", prod.Sink.Table)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("nope.yaml", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		errSubstr string
	}{
		{"unknown adapter", "target:\n  type: mysql\n", "unknown adapter type"},
		{"test size out of range", "training:\n  test_size: 1.5\n", "training.test_size"},
		{"threshold zero", "training:\n  threshold: 0\n", "training.threshold"},
		{"log format", "log_format: xml\n", "log_format"},
		{"no sink", "sink:\n  table: \"\"\n", "sink needs a table"},
		{"postgres without database", "target:\n  type: postgres\n", "target.database is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			writeConfig(t, dir, tt.body)

			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		target    TargetConfig
		errSubstr string
	}{
		{"empty type", TargetConfig{}, "target type is required"},
		{"valid duckdb", TargetConfig{Type: "duckdb"}, ""},
		{"valid postgres", TargetConfig{Type: "postgres", Database: "loans"}, ""},
		{"unknown type", TargetConfig{Type: "snowflake"}, "unknown adapter type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}

	var unknown *adapter.UnknownAdapterError
	err := (&TargetConfig{Type: "oracle"}).Validate()
	require.True(t, errors.As(err, &unknown))
	assert.Contains(t, unknown.Available, "duckdb")
	assert.Contains(t, unknown.Available, "postgres")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"LOANPREP_STATE_PATH":         "state_path",
		"LOANPREP_VERBOSE":            "verbose",
		"LOANPREP_TARGET_PASSWORD":    "target.password",
		"LOANPREP_SOURCE_CSV_PATH":    "source.csv_path",
		"LOANPREP_TRAINING_TEST_SIZE": "training.test_size",
		"LOANPREP_SINK_TABLE":         "sink.table",
		"LOANPREP_TARGETED_CAMPAIGN":  "targeted_campaign",
		"LOANPREP_METRICS_PATH":       "metrics_path",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LOANPREP_TEST_SET", "value")
	assert.Equal(t, "x-value-y", expandEnvVars("x-${LOANPREP_TEST_SET}-y"))
	assert.Equal(t, "${LOANPREP_TEST_UNSET_VAR}", expandEnvVars("${LOANPREP_TEST_UNSET_VAR}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestResolvePathRelativeTo(t *testing.T) {
	assert.Equal(t, "", resolvePathRelativeTo("", "/base"))
	assert.Equal(t, ":memory:", resolvePathRelativeTo(":memory:", "/base"))
	assert.Equal(t, "/abs/x.db", resolvePathRelativeTo("/abs/x.db", "/base"))
	assert.Equal(t, "s3://bucket/x.csv", resolvePathRelativeTo("s3://bucket/x.csv", "/base"))
	assert.Equal(t, filepath.Join("/base", "rel", "x.db"), resolvePathRelativeTo("rel/x.db", "/base"))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	l := GetLogger(WithLogger(context.Background(), nil))
	assert.NotNil(t, l)
}

func TestConfigContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	cfg := &Config{Environment: "prod"}
	assert.Same(t, cfg, FromContext(WithConfig(context.Background(), cfg)))
}
