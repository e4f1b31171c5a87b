package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wdmspipe/internal/config"
	lg "wdmspipe/internal/log"
	"wdmspipe/internal/sed"
)

func commonFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("subset", "", "")
	flags.Int("chunk", 0, "")
	flags.Bool("no-uv", false, "")
	flags.Bool("plots", true, "")
	flags.String("progress", "auto", "")
	flags.String("kind", "MS", "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestResolvePlots_ConfigDisablesWithoutFlag(t *testing.T) {
	cfg := config.Default()
	cfg.Plots.Enabled = false

	assert.False(t, resolvePlots(commonFlags(t), cfg))
}

func TestResolvePlots_ExplicitFlagWins(t *testing.T) {
	cfg := config.Default()
	cfg.Plots.Enabled = false
	assert.True(t, resolvePlots(commonFlags(t, "--plots=true"), cfg))

	cfg.Plots.Enabled = true
	assert.False(t, resolvePlots(commonFlags(t, "--plots=false"), cfg))
}

func TestResolvePlots_DefaultsOn(t *testing.T) {
	assert.True(t, resolvePlots(commonFlags(t), config.Default()))
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	content := `export:
  chunk_size: 500
  subset: bad
plots:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	flags := commonFlags(t, "--config", path, "--subset", "all", "--no-uv")
	cfg, err := resolveConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.Export.Subset)
	assert.Equal(t, 500, cfg.Export.ChunkSize)
	assert.True(t, cfg.Load.DropUVBands)
	assert.False(t, cfg.Plots.Enabled)
	assert.False(t, resolvePlots(flags, cfg))
}

func TestProgressMode_RejectsUnknown(t *testing.T) {
	mode, err := progressMode(commonFlags(t, "--progress", "plain"))
	require.NoError(t, err)
	assert.Equal(t, lg.ModePlain, mode)

	_, err = progressMode(commonFlags(t, "--progress", "loud"))
	assert.Error(t, err)
}

func TestComponentKind_Parses(t *testing.T) {
	kind, err := componentKind(commonFlags(t, "--kind", "wd"))
	require.NoError(t, err)
	assert.Equal(t, sed.KindWD, kind)

	_, err = componentKind(commonFlags(t, "--kind", "planet"))
	assert.Error(t, err)
}
