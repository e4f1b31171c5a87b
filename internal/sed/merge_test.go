package sed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchedPair(wdBands, msBands []Band) CandidatePair {
	wd := &FitRecord{
		ObjectID:   "J1234+5678",
		Kind:       KindWD,
		Meta:       Meta{RA: 10.001, DEC: 20.001, Distance: 101, Av: 0.2},
		Photometry: wdBands,
	}
	ms := &FitRecord{
		ObjectID:   "J1234+5678",
		Kind:       KindMS,
		Meta:       Meta{RA: 10, DEC: 20, Distance: 100, Av: 0.1},
		Photometry: msBands,
	}
	return CandidatePair{ObjectID: "J1234+5678", WD: wd, MS: ms, Status: StatusMatched}
}

func TestMerge_FluxConservingAtAnchor(t *testing.T) {
	pair := matchedPair(
		[]Band{
			{FilterID: "GALEX/GALEX.FUV", Wavelength: 1549, Flux: 9e-15, Error: 5e-17, ModelFlux: 5e-15},
			{FilterID: "GAIA/GAIA3.G", Wavelength: 5850, Flux: 1.1e-14, Error: 1e-16, ModelFlux: 2e-15},
		},
		[]Band{
			{FilterID: "GAIA/GAIA3.G", Wavelength: 5850, Flux: 1e-14, Error: 2e-16, ModelFlux: 6e-15, Fitted: true},
			{FilterID: "2MASS/2MASS.J", Wavelength: 12350, Flux: 5e-15, Error: 3e-16, ModelFlux: 4e-15, Fitted: true},
		},
	)

	sed, err := Merge(pair)
	require.NoError(t, err)

	assert.Equal(t, "GAIA/GAIA3.G", sed.AnchorBand)
	assert.InDelta(t, 2.0, sed.ScaleFactor, 1e-12) // (1e-14 - 6e-15) / 2e-15
	assert.Greater(t, sed.ScaleFactor, 0.0)

	// metadata follows the MS side, like the observed fluxes
	assert.Equal(t, pair.MS.Meta, sed.Meta)

	require.Len(t, sed.Bands, 3)
	// union ordered by wavelength
	assert.Equal(t, "GALEX/GALEX.FUV", sed.Bands[0].FilterID)
	assert.Equal(t, "GAIA/GAIA3.G", sed.Bands[1].FilterID)
	assert.Equal(t, "2MASS/2MASS.J", sed.Bands[2].FilterID)

	// scaled WD + MS model reproduces the observed flux at the anchor
	anchor := sed.Bands[1]
	assert.InDelta(t, 1e-14, anchor.Combined, 1e-26)

	// combined flux is the elementwise sum everywhere
	for _, b := range sed.Bands {
		assert.InDelta(t, b.WDFlux+b.MSFlux, b.Combined, 1e-26, b.FilterID)
	}

	// single-component bands pass through
	assert.Zero(t, sed.Bands[0].MSFlux)
	assert.InDelta(t, 2.0*5e-15, sed.Bands[0].WDFlux, 1e-26)
	assert.Zero(t, sed.Bands[2].WDFlux)
	assert.InDelta(t, 4e-15, sed.Bands[2].Combined, 1e-26)
}

func TestMerge_AnchorIsSmallestCombinedError(t *testing.T) {
	pair := matchedPair(
		[]Band{
			{FilterID: "GAIA/GAIA3.G", Wavelength: 5850, Flux: 1e-14, Error: 5e-15, ModelFlux: 2e-15},
			{FilterID: "GAIA/GAIA3.Grp", Wavelength: 7690, Flux: 8e-15, Error: 1e-17, ModelFlux: 1e-15},
		},
		[]Band{
			{FilterID: "GAIA/GAIA3.G", Wavelength: 5850, Flux: 1e-14, Error: 1e-17, ModelFlux: 6e-15, Fitted: true},
			{FilterID: "GAIA/GAIA3.Grp", Wavelength: 7690, Flux: 8e-15, Error: 2e-17, ModelFlux: 5e-15, Fitted: true},
		},
	)

	sed, err := Merge(pair)
	require.NoError(t, err)
	// combined errors: G = hypot(5e-15, 1e-17), Grp = hypot(1e-17, 2e-17)
	assert.Equal(t, "GAIA/GAIA3.Grp", sed.AnchorBand)
	assert.InDelta(t, 3.0, sed.ScaleFactor, 1e-12) // (8e-15 - 5e-15) / 1e-15
}

func TestMerge_NoCommonBand(t *testing.T) {
	pair := matchedPair(
		[]Band{{FilterID: "GALEX/GALEX.FUV", Wavelength: 1549, Flux: 1e-15, Error: 1e-17, ModelFlux: 1e-15}},
		[]Band{{FilterID: "2MASS/2MASS.J", Wavelength: 12350, Flux: 5e-15, Error: 3e-16, ModelFlux: 4e-15, Fitted: true}},
	)

	_, err := Merge(pair)
	assert.ErrorIs(t, err, ErrNoCommonBand)
}

func TestMerge_NonPositiveScale(t *testing.T) {
	// MS model alone already exceeds the observed anchor flux
	overshoot := matchedPair(
		[]Band{{FilterID: "GAIA/GAIA3.G", Wavelength: 5850, Flux: 1e-14, Error: 1e-16, ModelFlux: 2e-15}},
		[]Band{{FilterID: "GAIA/GAIA3.G", Wavelength: 5850, Flux: 5e-15, Error: 2e-16, ModelFlux: 6e-15, Fitted: true}},
	)
	_, err := Merge(overshoot)
	assert.ErrorIs(t, err, ErrNonPositiveScale)

	// degenerate WD model flux at the anchor
	zeroModel := matchedPair(
		[]Band{{FilterID: "GAIA/GAIA3.G", Wavelength: 5850, Flux: 1e-14, Error: 1e-16, ModelFlux: 0}},
		[]Band{{FilterID: "GAIA/GAIA3.G", Wavelength: 5850, Flux: 1e-14, Error: 2e-16, ModelFlux: 6e-15, Fitted: true}},
	)
	_, err = Merge(zeroModel)
	assert.ErrorIs(t, err, ErrNonPositiveScale)
}

func TestMerge_RequiresMatchedPair(t *testing.T) {
	pair := CandidatePair{ObjectID: "a", WD: wdRecord("a"), Status: StatusWDOnly}
	_, err := Merge(pair)
	var integrity *IntegrityError
	assert.ErrorAs(t, err, &integrity)
}
