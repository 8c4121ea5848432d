package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loanprep/internal/config"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewRunCommand(), "run", []string{"source-table", "sink-table", "output-csv"}},
		{NewSeedCommand(), "seed [csv]", []string{"source-table"}},
		{NewTrainCommand(), "train", []string{"sink-table", "test-size", "threshold", "learning-rate", "epochs", "seed"}},
		{NewExportCommand(), "export <csv>", []string{"sink-table"}},
		{NewStepsCommand(), "steps", nil},
		{NewRunsCommand(), "runs", []string{"limit"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestRunsCommand_HasShow(t *testing.T) {
	cmd := NewRunsCommand()
	show, _, err := cmd.Find([]string{"show"})
	require.NoError(t, err)
	assert.Equal(t, "show <run-id>", show.Use)
	assert.Error(t, show.Args(show, nil), "show requires a run id")
}

func TestSeedCommand_Args(t *testing.T) {
	cmd := NewSeedCommand()
	assert.NoError(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"loans.csv"}))
	assert.Error(t, cmd.Args(cmd, []string{"a.csv", "b.csv"}))
}

func TestRenderer(t *testing.T) {
	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	r := NewRenderer(cmd)
	assert.False(t, r.JSONMode(), "text without an output flag")
	require.NoError(t, validateOutput(r))

	r.Table(nil, nil)
	assert.Equal(t, "(0 rows)\n", buf.String())

	cmd.Flags().StringP("output", "o", OutputText, "")
	require.NoError(t, cmd.Flags().Set("output", "yaml"))
	assert.Error(t, validateOutput(NewRenderer(cmd)))

	require.NoError(t, cmd.Flags().Set("output", OutputJSON))
	buf.Reset()
	r = NewRenderer(cmd)
	require.True(t, r.JSONMode())
	require.NoError(t, r.JSON(map[string]int{"rows": 3}))
	assert.JSONEq(t, `{"rows": 3}`, buf.String())
}

func TestNewCommandContext_RequiresConfig(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	_, err := NewCommandContextWithoutEngine(cmd)
	assert.Error(t, err)

	cmd.SetContext(config.WithConfig(context.Background(), &config.Config{StatePath: ":memory:"}))
	cc, err := NewCommandContextWithoutEngine(cmd)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cc.Cfg.StatePath)
	assert.NotNil(t, cc.Logger)
	assert.Nil(t, cc.Engine)
}
