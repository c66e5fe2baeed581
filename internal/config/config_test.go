package config

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoundCommand(t *testing.T) (*cobra.Command, *viper.Viper) {
	t.Helper()
	cmd := &cobra.Command{Use: "gcode-ls"}
	v := viper.New()
	BindFlags(cmd, v)
	return cmd, v
}

func TestResolveDefaults(t *testing.T) {
	_, v := newBoundCommand(t)

	cfg, err := Resolve(v)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.Flavor)
	assert.False(t, cfg.LongDescriptions)
	assert.NotEmpty(t, cfg.FlavorDirs, "the XDG user-global flavor directory should always be appended")
}

func TestResolveFromFlags(t *testing.T) {
	cmd, v := newBoundCommand(t)

	require.NoError(t, cmd.Flags().Set("flavor", "marlin"))
	require.NoError(t, cmd.Flags().Set("flavor-dir", "/etc/gcode-ls/flavors"))
	require.NoError(t, cmd.Flags().Set("long-descriptions", "true"))
	require.NoError(t, cmd.Flags().Set("log-level", "debug"))

	cfg, err := Resolve(v)
	require.NoError(t, err)
	assert.Equal(t, "marlin", cfg.Flavor)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LongDescriptions)
	require.Len(t, cfg.FlavorDirs, 2)
	assert.Equal(t, "/etc/gcode-ls/flavors", cfg.FlavorDirs[0])
}

func TestResolveRejectsUnknownLogLevel(t *testing.T) {
	cmd, v := newBoundCommand(t)
	require.NoError(t, cmd.Flags().Set("log-level", "verbose"))

	_, err := Resolve(v)
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}
