package sed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResidualStat_MasksUnfittedBands(t *testing.T) {
	bands := []Band{
		// UV bands always contribute
		{FilterID: "GALEX/GALEX.FUV", Flux: 1e-14, ModelFlux: 8e-15},
		// clean fit contributes: |(1e-14 - 9e-15) / 1e-14| = 0.1
		{FilterID: "GAIA/GAIA3.G", Flux: 1e-14, ModelFlux: 9e-15, Fitted: true},
		// excess band is masked even though its residual would dominate
		{FilterID: "WISE/WISE.W3", Flux: 1e-14, ModelFlux: 1e-16, Fitted: true, Excess: true},
		// upper limits and unfitted bands are masked
		{FilterID: "WISE/WISE.W4", Flux: 1e-14, ModelFlux: 1e-16, Fitted: true, UpperLimit: true},
		{FilterID: "2MASS/2MASS.J", Flux: 1e-14, ModelFlux: 1e-16, Fitted: false},
	}

	// FUV residual |(1e-14 - 8e-15)/1e-14| = 0.2 is the worst contributor
	assert.InDelta(t, 0.2, ResidualStat(bands), 1e-12)
}

func TestResidualStat_Degenerate(t *testing.T) {
	assert.True(t, math.IsNaN(ResidualStat(nil)))

	noContributors := []Band{{FilterID: "GAIA/GAIA3.G", Flux: 1e-14, ModelFlux: 1e-15, Fitted: false}}
	assert.True(t, math.IsNaN(ResidualStat(noContributors)))

	zeroFlux := []Band{{FilterID: "GALEX/GALEX.NUV", Flux: 0, ModelFlux: 1e-15}}
	assert.True(t, math.IsNaN(ResidualStat(zeroFlux)))
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "j1234+5678", NormalizeID("  J1234+5678 "))
	assert.Equal(t, "j1234-5678", NormalizeID("J1234_5678"))
	assert.Equal(t, NormalizeID("J1234_5678"), NormalizeID("j1234-5678"))
}
