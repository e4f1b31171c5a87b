package sed

import "strings"

// NormalizeID canonicalises an object identifier for matching: surrounding
// whitespace is trimmed, case is folded, and the underscore/hyphen
// separator ambiguity between WD and MS exports is collapsed to hyphens.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.ReplaceAll(id, "_", "-")
}

// Match pairs WD and MS records sharing an object ID. Every input record
// appears in exactly one output pair: shared IDs yield one Matched pair,
// IDs present on a single side yield a WdOnly/MsOnly entry. Output order
// is WD input order followed by the unmatched MS records in MS input
// order. Duplicate IDs within one side are an integrity violation; the
// loader is expected to have de-duplicated already.
func Match(wd, ms []*FitRecord) ([]CandidatePair, error) {
	msIndex := make(map[string]*FitRecord, len(ms))
	for _, rec := range ms {
		key := NormalizeID(rec.ObjectID)
		if _, dup := msIndex[key]; dup {
			return nil, &IntegrityError{ObjectID: rec.ObjectID, Detail: "duplicate object ID in MS input"}
		}
		msIndex[key] = rec
	}

	seenWD := make(map[string]bool, len(wd))
	pairs := make([]CandidatePair, 0, len(wd)+len(ms))
	claimed := make(map[string]bool, len(ms))

	for _, rec := range wd {
		key := NormalizeID(rec.ObjectID)
		if seenWD[key] {
			return nil, &IntegrityError{ObjectID: rec.ObjectID, Detail: "duplicate object ID in WD input"}
		}
		seenWD[key] = true

		if counterpart, ok := msIndex[key]; ok {
			pairs = append(pairs, CandidatePair{
				ObjectID: rec.ObjectID,
				WD:       rec,
				MS:       counterpart,
				Status:   StatusMatched,
			})
			claimed[key] = true
			continue
		}
		pairs = append(pairs, CandidatePair{ObjectID: rec.ObjectID, WD: rec, Status: StatusWDOnly})
	}

	for _, rec := range ms {
		if !claimed[NormalizeID(rec.ObjectID)] {
			pairs = append(pairs, CandidatePair{ObjectID: rec.ObjectID, MS: rec, Status: StatusMSOnly})
		}
	}

	return pairs, nil
}

// Matched filters pairs down to the ones eligible for merging
func Matched(pairs []CandidatePair) []CandidatePair {
	out := make([]CandidatePair, 0, len(pairs))
	for _, p := range pairs {
		if p.Status == StatusMatched {
			out = append(out, p)
		}
	}
	return out
}
