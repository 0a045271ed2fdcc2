package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Filter is a typed query over the ledger. Zero-valued fields do not
// constrain; set fields combine with AND. Compilation is deterministic:
// the same filter always produces the same SQL text, and every value is
// parameterized, never interpolated.
type Filter struct {
	// EventID restricts to one source event.
	EventID int64

	// Policy restricts to one restart policy name.
	Policy string

	// LegacyOnly keeps only records carrying the unverified restart
	// audit marker.
	LegacyOnly bool

	// MinLines keeps records whose instruction stream has at least this
	// many lines.
	MinLines int

	// MinHighWater keeps records whose peak live-slot count in either
	// polarity reaches this value. Finds events near pool exhaustion.
	MinHighWater int
}

// compile lowers a filter to a parameterized WHERE clause. Conditions
// are emitted in fixed field order and results always carry a stable
// ORDER BY, so query plans and row order never depend on map iteration.
func (f Filter) compile() (string, []any) {
	var conds []string
	var params []any

	if f.EventID != 0 {
		conds = append(conds, "event_id = ?")
		params = append(params, f.EventID)
	}
	if f.Policy != "" {
		conds = append(conds, "policy = ?")
		params = append(params, f.Policy)
	}
	if f.LegacyOnly {
		conds = append(conds, "legacy_audit = 1")
	}
	if f.MinLines > 0 {
		conds = append(conds, "line_count >= ?")
		params = append(params, f.MinLines)
	}
	if f.MinHighWater > 0 {
		conds = append(conds, "(high_water_and >= ? OR high_water_or >= ?)")
		params = append(params, f.MinHighWater, f.MinHighWater)
	}

	var where string
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	sql := fmt.Sprintf(`
		SELECT id, event_id, policy, legacy_audit, line_count, high_water_and, high_water_or, program_hash, recorded_seq
		FROM compiled_events%s
		ORDER BY recorded_seq, id
	`, where)
	return sql, params
}

// Select returns the records matching a filter, in recording order.
func (l *Ledger) Select(ctx context.Context, f Filter) ([]Record, error) {
	sql, params := f.compile()
	return l.query(ctx, sql, params...)
}
