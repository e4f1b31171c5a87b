package sed

import (
	"errors"
	"fmt"
)

// Sentinel merge failures. Both exclude the pair from export; neither is
// fatal to a run.
var (
	ErrNoCommonBand     = errors.New("no common photometric band between components")
	ErrNonPositiveScale = errors.New("scale factor is not strictly positive")
)

// IntegrityError reports a violated data invariant, such as a duplicate
// object ID surviving loader de-duplication. Integrity errors fail the run.
type IntegrityError struct {
	ObjectID string
	Detail   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s: %s", e.ObjectID, e.Detail)
}
