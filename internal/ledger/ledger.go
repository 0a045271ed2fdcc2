// Package ledger records compiled events in a SQLite audit trail.
//
// The ledger is an observability surface, not program storage: the
// instruction streams themselves live in memory, the ledger keeps their
// content-addressed hashes and shape metrics so repeated compilations can
// be audited for determinism and legacy restart semantics can be queried
// after the fact.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/quelaag/evsc/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// InMemory is the DSN for a throwaway in-process ledger.
const InMemory = ":memory:"

// IDGenerator mints record IDs. Production uses UUIDv7 for time-ordered
// IDs; tests substitute a fixed sequence.
type IDGenerator interface {
	NewID() (uuid.UUID, error)
}

type uuidV7Generator struct{}

func (uuidV7Generator) NewID() (uuid.UUID, error) { return uuid.NewV7() }

// Clock supplies the monotonic sequence stamped on each record.
type Clock interface {
	Next() int64
}

type atomicClock struct{ seq int64 }

func (c *atomicClock) Next() int64 { return atomic.AddInt64(&c.seq, 1) }

// Record is one ledger row describing a compiled event.
type Record struct {
	ID           string
	EventID      int64
	Policy       string
	LegacyAudit  bool
	LineCount    int
	HighWaterAND int
	HighWaterOR  int
	ProgramHash  string
	Seq          int64
}

// Ledger is a SQLite-backed audit log of compilations.
type Ledger struct {
	db    *sql.DB
	ids   IDGenerator
	clock Clock
}

// Option configures a ledger.
type Option func(*Ledger)

// WithIDGenerator substitutes the record ID source.
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) { l.ids = g }
}

// WithClock substitutes the sequence clock.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// Open creates or opens a ledger at the given SQLite DSN. Use InMemory
// for a process-local ledger.
func Open(dsn string, opts ...Option) (*Ledger, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// SQLite supports one writer; a single connection avoids
	// SQLITE_BUSY and keeps :memory: databases from vanishing between
	// connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}

	l := &Ledger{
		db:    db,
		ids:   uuidV7Generator{},
		clock: &atomicClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record writes one compiled event to the ledger and returns the stored
// row. Recording is idempotent on the program hash: an identical
// compilation returns the original record unchanged.
func (l *Ledger) Record(ctx context.Context, ev *ir.Event) (*Record, error) {
	id, err := l.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("record event %d: %w", ev.ID, err)
	}

	rec := &Record{
		ID:           id.String(),
		EventID:      ev.ID,
		Policy:       ev.Policy.String(),
		LegacyAudit:  ev.LegacyRestart,
		LineCount:    len(ev.Lines),
		HighWaterAND: ev.Slots.HighWaterAND,
		HighWaterOR:  ev.Slots.HighWaterOR,
		ProgramHash:  ir.ProgramHash(ev),
		Seq:          l.clock.Next(),
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO compiled_events
		(id, event_id, policy, legacy_audit, line_count, high_water_and, high_water_or, program_hash, recorded_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(program_hash) DO NOTHING
	`,
		rec.ID,
		rec.EventID,
		rec.Policy,
		rec.LegacyAudit,
		rec.LineCount,
		rec.HighWaterAND,
		rec.HighWaterOR,
		rec.ProgramHash,
		rec.Seq,
	)
	if err != nil {
		return nil, fmt.Errorf("record event %d: %w", ev.ID, err)
	}

	// The insert may have been a no-op; the stored row is authoritative.
	return l.Lookup(ctx, rec.ProgramHash)
}

// Lookup returns the record for a program hash, or sql.ErrNoRows.
func (l *Ledger) Lookup(ctx context.Context, programHash string) (*Record, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, event_id, policy, legacy_audit, line_count, high_water_and, high_water_or, program_hash, recorded_seq
		FROM compiled_events
		WHERE program_hash = ?
	`, programHash)
	return scanRecord(row)
}

// Events returns all records in recording order.
func (l *Ledger) Events(ctx context.Context) ([]Record, error) {
	return l.query(ctx, `
		SELECT id, event_id, policy, legacy_audit, line_count, high_water_and, high_water_or, program_hash, recorded_seq
		FROM compiled_events
		ORDER BY recorded_seq
	`)
}

// LegacyFlagged returns records carrying the unverified restart audit
// marker, in recording order.
func (l *Ledger) LegacyFlagged(ctx context.Context) ([]Record, error) {
	return l.query(ctx, `
		SELECT id, event_id, policy, legacy_audit, line_count, high_water_and, high_water_or, program_hash, recorded_seq
		FROM compiled_events
		WHERE legacy_audit = 1
		ORDER BY recorded_seq
	`)
}

func (l *Ledger) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.EventID, &rec.Policy, &rec.LegacyAudit,
			&rec.LineCount, &rec.HighWaterAND, &rec.HighWaterOR,
			&rec.ProgramHash, &rec.Seq,
		); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	return out, nil
}

func scanRecord(row *sql.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(
		&rec.ID, &rec.EventID, &rec.Policy, &rec.LegacyAudit,
		&rec.LineCount, &rec.HighWaterAND, &rec.HighWaterOR,
		&rec.ProgramHash, &rec.Seq,
	); err != nil {
		return nil, fmt.Errorf("scan ledger row: %w", err)
	}
	return &rec, nil
}
