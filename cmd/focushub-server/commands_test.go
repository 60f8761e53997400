package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjfocus/focushub/pkg/focushub/config"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, buildVersion+"\n", out.String())
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "from-env.db")
	cfg, err := config.FromEnv()
	require.NoError(t, err)

	root := newRootCommand()
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, serve.ParseFlags([]string{"--port", "9090", "--database-url", "from-flag.db"}))

	require.NoError(t, applyFlags(serve, cfg))
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, "from-flag.db", cfg.Database.URL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestApplyFlagsRejectsUnknownDriver(t *testing.T) {
	cfg, err := config.FromEnv()
	require.NoError(t, err)

	root := newRootCommand()
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, serve.ParseFlags([]string{"--db-driver", "oracle"}))

	assert.Error(t, applyFlags(serve, cfg))
}
