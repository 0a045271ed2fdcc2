package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/quelaag/evsc/internal/ir"
)

// AssertGolden compares the canonical listings of a scenario's compiled
// events against testdata/golden/<name>.golden. Events are concatenated
// in scenario order with a blank line between them, so one golden file
// covers the whole scenario.
func AssertGolden(t *testing.T, s *Scenario, res *Result) {
	t.Helper()

	var buf bytes.Buffer
	for i, ev := range res.Events {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(ir.CanonicalListing(ev))
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, buf.Bytes())
}
