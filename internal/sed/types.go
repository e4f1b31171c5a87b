package sed

import "math"

// ComponentKind identifies which binary component a fit belongs to
type ComponentKind string

const (
	KindWD ComponentKind = "WD"
	KindMS ComponentKind = "MS"
)

// Category is the classification outcome for a fit record
type Category string

const (
	CategoryUnclassified Category = "unclassified"
	CategoryGood         Category = "good"
	CategoryBad          Category = "bad"
)

// MatchStatus describes how an object resolved across the WD and MS inputs
type MatchStatus string

const (
	StatusMatched MatchStatus = "matched"
	StatusWDOnly  MatchStatus = "wd_only"
	StatusMSOnly  MatchStatus = "ms_only"
)

// Band is one photometric measurement with its best-fit model flux
type Band struct {
	FilterID   string  // VOSA filter name, e.g. GAIA/GAIA3.G
	Wavelength float64 // effective wavelength in Angstrom
	Flux       float64 // observed flux, erg/cm2/s/A
	Error      float64 // observed flux error
	ModelFlux  float64 // best-fit model flux at this band

	// Fit-quality flags from the photometry table ("---" reads as unset)
	Fitted     bool
	Excess     bool
	UpperLimit bool
	FitExcess  bool
}

// IsUV reports whether the band is a GALEX ultraviolet band.
// UV bands always contribute to the residual statistic; other bands
// contribute only when cleanly fitted (no excess, no upper limit).
func (b Band) IsUV() bool {
	return len(b.FilterID) >= 5 && b.FilterID[:5] == "GALEX"
}

// InResidual reports whether the band participates in the residual statistic
func (b Band) InResidual() bool {
	if b.IsUV() {
		return true
	}
	return b.Fitted && !b.Excess && !b.UpperLimit && !b.FitExcess
}

// Param is a model parameter value with its uncertainty (NaN when unknown)
type Param struct {
	Value       float64
	Uncertainty float64
}

// Meta holds the object metadata parsed from the photometry header block
type Meta struct {
	RA       float64 // degrees
	DEC      float64 // degrees
	Distance float64 // parsecs
	Av       float64 // visual extinction, magnitudes
}

// FitRecord is one component's best-fit solution for one object.
// Records are immutable after loading except for the single category
// assignment made by the classifier.
type FitRecord struct {
	ObjectID   string
	Kind       ComponentKind
	Meta       Meta
	Params     map[string]Param
	Photometry []Band

	Residual float64 // max absolute normalized residual over contributing bands
	Vgfb     float64 // reduced chi-square-like statistic from the fit results

	Category Category
	Reason   string // populated when a record is rejected for a non-threshold reason
}

// Band returns the photometry entry for filterID and whether it exists
func (r *FitRecord) Band(filterID string) (Band, bool) {
	for _, b := range r.Photometry {
		if b.FilterID == filterID {
			return b, true
		}
	}
	return Band{}, false
}

// CandidatePair is a WD and MS record resolved to the same object ID.
// Only Matched pairs are eligible for merging.
type CandidatePair struct {
	ObjectID string
	WD       *FitRecord
	MS       *FitRecord
	Status   MatchStatus
}

// ScaledBand is one band of a composite SED after WD scaling
type ScaledBand struct {
	FilterID   string
	Wavelength float64
	WDFlux     float64 // scaled WD model flux (0 when the WD fit lacks this band)
	MSFlux     float64 // unscaled MS model flux (0 when the MS fit lacks this band)
	Combined   float64 // WDFlux + MSFlux
	Observed   float64 // observed flux, MS side preferred
	ObsError   float64
}

// CompositeSED is the merged, flux-scaled spectrum for one candidate
type CompositeSED struct {
	ObjectID    string
	Meta        Meta // object metadata, MS side preferred like the observed fluxes
	AnchorBand  string
	ScaleFactor float64
	Bands       []ScaledBand // union of both components' bands, wavelength ascending
}

// ResidualStat computes the record-level residual statistic: the maximum
// absolute normalized residual (F - Fmod) / F over contributing bands.
// Returns NaN when no band contributes or an observed flux is zero.
func ResidualStat(bands []Band) float64 {
	worst := math.NaN()
	for _, b := range bands {
		if !b.InResidual() {
			continue
		}
		if b.Flux == 0 {
			return math.NaN()
		}
		r := math.Abs((b.Flux - b.ModelFlux) / b.Flux)
		if math.IsNaN(worst) || r > worst {
			worst = r
		}
	}
	return worst
}
