package report

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport_CountsByKind(t *testing.T) {
	rep := New()
	rep.Add(KindParse, "bad line 1")
	rep.Add(KindParse, "bad line 2")
	rep.Addf(KindNoCommonBand, "object %s", "J1234+5678")

	assert.Equal(t, 2, rep.Count(KindParse))
	assert.Equal(t, 1, rep.Count(KindNoCommonBand))
	assert.Equal(t, 0, rep.Count(KindPlot))
	assert.Equal(t, 3, rep.Total())

	counts := rep.Counts()
	assert.Equal(t, 2, counts[KindParse])
}

func TestReport_SummaryCapsSamples(t *testing.T) {
	rep := New()
	for i := 0; i < 10; i++ {
		rep.Add(KindParse, "detail")
	}

	summary := rep.Summary()
	assert.Contains(t, summary, "parse_error: 10")
	assert.Contains(t, summary, "and 5 more")
}

func TestReport_EmptySummary(t *testing.T) {
	assert.Empty(t, New().Summary())
}

func TestReport_ConcurrentAdds(t *testing.T) {
	rep := New()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				rep.Add(KindDroppedBand, "x")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, rep.Count(KindDroppedBand))
}
