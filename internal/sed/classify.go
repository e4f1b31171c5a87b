package sed

import (
	"fmt"
	"math"
)

// Thresholds are the acceptance cuts applied by Classify
type Thresholds struct {
	RMax float64 // maximum residual statistic for a good fit
	VMax float64 // maximum Vgfb for a good fit
}

// Classify assigns a category to rec and returns it. A record is good iff
// residual <= RMax and vgfb <= VMax; a record missing either statistic is
// bad with a recorded reason. Classification is deterministic and total.
func Classify(rec *FitRecord, th Thresholds) Category {
	switch {
	case math.IsNaN(rec.Residual):
		rec.Category = CategoryBad
		rec.Reason = "residual statistic unavailable"
	case math.IsNaN(rec.Vgfb):
		rec.Category = CategoryBad
		rec.Reason = "vgfb unavailable"
	case rec.Residual <= th.RMax && rec.Vgfb <= th.VMax:
		rec.Category = CategoryGood
		rec.Reason = ""
	default:
		rec.Category = CategoryBad
		rec.Reason = fmt.Sprintf("residual=%.4g vgfb=%.4g exceeds cuts r_max=%.4g v_max=%.4g",
			rec.Residual, rec.Vgfb, th.RMax, th.VMax)
	}
	return rec.Category
}

// ClassifyAll classifies every record in place and returns good/bad counts
func ClassifyAll(recs []*FitRecord, th Thresholds) (good, bad int) {
	for _, rec := range recs {
		if Classify(rec, th) == CategoryGood {
			good++
		} else {
			bad++
		}
	}
	return good, bad
}

// Partition splits classified records into good and bad, preserving the
// relative order of the input in both halves. Records must already be
// classified; unclassified records land in bad.
func Partition(recs []*FitRecord) (good, bad []*FitRecord) {
	for _, rec := range recs {
		if rec.Category == CategoryGood {
			good = append(good, rec)
		} else {
			bad = append(bad, rec)
		}
	}
	return good, bad
}

// Subset returns the view of recs selected by name: "good", "bad", or
// "all". All is the input itself, order untouched.
func Subset(recs []*FitRecord, name string) ([]*FitRecord, error) {
	switch name {
	case "all":
		return recs, nil
	case "good":
		good, _ := Partition(recs)
		return good, nil
	case "bad":
		_, bad := Partition(recs)
		return bad, nil
	default:
		return nil, fmt.Errorf("unknown subset %q (want good, bad, or all)", name)
	}
}
