package sed

import (
	"fmt"
	"math"
	"sort"
)

// Merge combines a matched WD+MS pair into one flux-scaled composite SED.
//
// Convention (fixed here, documented in DESIGN.md): the MS model is the
// unscaled baseline. The anchor band is the band present in both fits with
// the smallest combined flux error, and the WD scale factor is chosen so
// that at the anchor band
//
//	scale*wdModel + msModel == observed flux (MS side)
//
// i.e. the merge is flux-conserving at the anchor. The factor is applied
// uniformly to every WD band; the combined flux is the elementwise sum
// over the union of bands, with single-component bands passing through
// unchanged. No interpolation across missing bands.
func Merge(pair CandidatePair) (*CompositeSED, error) {
	if pair.Status != StatusMatched || pair.WD == nil || pair.MS == nil {
		return nil, &IntegrityError{ObjectID: pair.ObjectID, Detail: "merge requires a matched pair"}
	}

	anchor, ok := anchorBand(pair.WD.Photometry, pair.MS.Photometry)
	if !ok {
		return nil, fmt.Errorf("%s: %w", pair.ObjectID, ErrNoCommonBand)
	}

	wdAnchor, _ := pair.WD.Band(anchor)
	msAnchor, _ := pair.MS.Band(anchor)

	scale := math.NaN()
	if wdAnchor.ModelFlux > 0 {
		scale = (msAnchor.Flux - msAnchor.ModelFlux) / wdAnchor.ModelFlux
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return nil, fmt.Errorf("%s: anchor %s: %w", pair.ObjectID, anchor, ErrNonPositiveScale)
	}

	sed := &CompositeSED{
		ObjectID:    pair.ObjectID,
		Meta:        pair.MS.Meta,
		AnchorBand:  anchor,
		ScaleFactor: scale,
	}

	msByFilter := make(map[string]Band, len(pair.MS.Photometry))
	for _, b := range pair.MS.Photometry {
		msByFilter[b.FilterID] = b
	}

	seen := make(map[string]bool)
	for _, wb := range pair.WD.Photometry {
		seen[wb.FilterID] = true
		sb := ScaledBand{
			FilterID:   wb.FilterID,
			Wavelength: wb.Wavelength,
			WDFlux:     scale * wb.ModelFlux,
			Observed:   wb.Flux,
			ObsError:   wb.Error,
		}
		if mb, shared := msByFilter[wb.FilterID]; shared {
			sb.MSFlux = mb.ModelFlux
			sb.Observed = mb.Flux
			sb.ObsError = mb.Error
		}
		sb.Combined = sb.WDFlux + sb.MSFlux
		sed.Bands = append(sed.Bands, sb)
	}
	for _, mb := range pair.MS.Photometry {
		if seen[mb.FilterID] {
			continue
		}
		sed.Bands = append(sed.Bands, ScaledBand{
			FilterID:   mb.FilterID,
			Wavelength: mb.Wavelength,
			MSFlux:     mb.ModelFlux,
			Combined:   mb.ModelFlux,
			Observed:   mb.Flux,
			ObsError:   mb.Error,
		})
	}

	sort.SliceStable(sed.Bands, func(i, j int) bool {
		if sed.Bands[i].Wavelength != sed.Bands[j].Wavelength {
			return sed.Bands[i].Wavelength < sed.Bands[j].Wavelength
		}
		return sed.Bands[i].FilterID < sed.Bands[j].FilterID
	})

	return sed, nil
}

// anchorBand picks the shared band with the smallest combined flux error
func anchorBand(wd, ms []Band) (string, bool) {
	msErr := make(map[string]float64, len(ms))
	for _, b := range ms {
		msErr[b.FilterID] = b.Error
	}

	best := ""
	bestErr := math.Inf(1)
	for _, b := range wd {
		me, shared := msErr[b.FilterID]
		if !shared {
			continue
		}
		combined := math.Hypot(b.Error, me)
		if combined < bestErr {
			bestErr = combined
			best = b.FilterID
		}
	}
	return best, best != ""
}
