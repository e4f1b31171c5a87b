package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wdmspipe/internal/config"
	lg "wdmspipe/internal/log"
	"wdmspipe/internal/report"
)

func writeTreeFile(t *testing.T, root string, parts ...string) {
	t.Helper()
	content := parts[len(parts)-1]
	path := filepath.Join(append([]string{root}, parts[:len(parts)-1]...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const wdPhot = `# RA = 10.0 deg
# DEC = 20.0 deg
# D (pc) = 100.0
# Av = 0.1
#FilterID Wavelength Flux Error FluxMod Fitted Excess UpLim FitExc
GALEX/GALEX.FUV 1549.0 9.0e-15 5.0e-17 5.0e-15 --- --- --- ---
GAIA/GAIA3.G 5850.0 1.1e-14 1.0e-16 2.0e-15 1 0 0 0
`

const msPhot = `# RA = 10.0 deg
# DEC = 20.0 deg
# D (pc) = 100.0
# Av = 0.1
#FilterID Wavelength Flux Error FluxMod Fitted Excess UpLim FitExc
GAIA/GAIA3.G 5850.0 1.0e-14 2.0e-16 6.0e-15 1 0 0 0
2MASS/2MASS.J 12350.0 5.0e-15 3.0e-16 4.0e-15 1 0 0 0
`

const wdResults = `# fit results
#  Object  Teff  logg  Vgfb
J1234+5678  24000  8.0  3.2
J0000+0000  18000  7.5  2.0
`

const msResults = `# fit results
#  Object  Teff  logg  Vgfb
J1234+5678  5800  4.5  4.1
`

func buildFixtures(t *testing.T) (wdRoot, msRoot string) {
	wdRoot, msRoot = t.TempDir(), t.TempDir()

	writeTreeFile(t, wdRoot, "objects", "J1234+5678", "bestfitp", "J1234+5678.bfit.phot.dat", wdPhot)
	writeTreeFile(t, wdRoot, "objects", "J0000+0000", "bestfitp", "J0000+0000.bfit.phot.dat", wdPhot)
	writeTreeFile(t, wdRoot, "results", "bestfitp.dat", wdResults)

	writeTreeFile(t, msRoot, "objects", "J1234+5678", "bestfitp", "J1234+5678.bfit.phot.dat", msPhot)
	writeTreeFile(t, msRoot, "results", "bestfitp.dat", msResults)
	return wdRoot, msRoot
}

func testOptions(wdRoot, msRoot, outDir string) Options {
	cfg := config.Default()
	cfg.Load.Workers = 1
	return Options{
		WDRoot:   wdRoot,
		MSRoot:   msRoot,
		OutDir:   outDir,
		Plots:    false,
		Progress: lg.ModeOff,
		Config:   cfg,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	wdRoot, msRoot := buildFixtures(t)
	outDir := t.TempDir()

	result, rep, err := Run(context.Background(), testOptions(wdRoot, msRoot, outDir))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, 2, result.WDLoaded)
	assert.Equal(t, 1, result.MSLoaded)
	assert.Equal(t, 2, result.WDGood)
	assert.Equal(t, 1, result.MSGood)

	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.WDOnly)
	assert.Equal(t, 0, result.MSOnly)

	assert.Equal(t, 1, result.Merged)
	assert.Equal(t, 0, result.MergeFailed)

	require.Len(t, result.ChunkFiles, 1)
	assert.Equal(t, filepath.Join(outDir, "vosa", "good", "0-1.txt"), result.ChunkFiles[0])
	data, err := os.ReadFile(result.ChunkFiles[0])
	require.NoError(t, err)
	// header line carries the MS-side object metadata
	assert.Contains(t, string(data), "J1234+5678\t10\t20\t100\t0.1")

	assert.Equal(t, 0, rep.Count(report.KindNoCommonBand))

	// plots disabled: no figure directory appears
	_, statErr := os.Stat(filepath.Join(outDir, "plots"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_IsIdempotent(t *testing.T) {
	wdRoot, msRoot := buildFixtures(t)
	outDir := t.TempDir()
	opts := testOptions(wdRoot, msRoot, outDir)

	first, _, err := Run(context.Background(), opts)
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(first.ChunkFiles[0])
	require.NoError(t, err)

	second, _, err := Run(context.Background(), opts)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(second.ChunkFiles[0])
	require.NoError(t, err)

	assert.Equal(t, string(firstBytes), string(secondBytes))
}

func TestRun_MissingInputFails(t *testing.T) {
	_, msRoot := buildFixtures(t)

	opts := testOptions(filepath.Join(t.TempDir(), "absent"), msRoot, t.TempDir())
	_, _, err := Run(context.Background(), opts)
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	wdRoot, msRoot := buildFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Run(ctx, testOptions(wdRoot, msRoot, t.TempDir()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_AllSubsetMatchesUnfiltered(t *testing.T) {
	wdRoot, msRoot := buildFixtures(t)
	// push the MS record over the Vgfb cut so the good subset would be empty
	writeTreeFile(t, msRoot, "results", "bestfitp.dat", `# fit results
#  Object  Teff  logg  Vgfb
J1234+5678  5800  4.5  99.0
`)

	opts := testOptions(wdRoot, msRoot, t.TempDir())
	opts.Config.Export.Subset = "all"

	result, _, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MSBad)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Merged)
}
