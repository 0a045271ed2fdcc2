package compiler

import (
	"log/slog"

	"github.com/quelaag/evsc/internal/ir"
	"github.com/quelaag/evsc/internal/namespace"
	"github.com/quelaag/evsc/internal/registry"
)

// EventDef is the source form of one event: an ID, restart tags, and an
// ordered statement body. Built fluently, consumed by Compile.
type EventDef struct {
	ID   int64
	tags []ir.RestartPolicy
	body []Node
}

// NewEvent starts an event definition.
func NewEvent(id int64) *EventDef {
	return &EventDef{ID: id}
}

// Tag applies a restart policy marker. Compile requires exactly one.
func (e *EventDef) Tag(p ir.RestartPolicy) *EventDef {
	e.tags = append(e.tags, p)
	return e
}

// Body appends statements: conditions, awaits, and terminators.
func (e *EventDef) Body(stmts ...Node) *EventDef {
	e.body = append(e.body, stmts...)
	return e
}

type config struct {
	reg    *registry.Registry
	ns     *namespace.Table
	pool   int
	logger *slog.Logger
}

// Option configures a compilation.
type Option func(*config)

// WithRegistry substitutes the test registry. Defaults to the process-wide
// vocabulary registry.
func WithRegistry(r *registry.Registry) Option {
	return func(c *config) { c.reg = r }
}

// WithNamespace supplies the symbolic flag-name table used to resolve
// ir.Sym arguments.
func WithNamespace(t *namespace.Table) Option {
	return func(c *config) { c.ns = t }
}

// WithPoolSize overrides the per-polarity slot pool size. Defaults to
// DefaultPoolSize; tests use small pools to exercise exhaustion.
func WithPoolSize(n int) Option {
	return func(c *config) { c.pool = n }
}

// WithLogger enables debug logging of the compile pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Compile lowers an event definition into a flat instruction stream with
// its slot table. All errors are detected here; the emitted event is
// assumed syntactically valid once accepted. On any error no event is
// returned: compilation is all-or-nothing.
func Compile(def *EventDef, opts ...Option) (*ir.Event, error) {
	c := &config{
		reg:  registry.Default(),
		ns:   namespace.Empty(),
		pool: DefaultPoolSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Policy classification runs before anything is emitted: a mis-tagged
	// event fails without a single instruction existing.
	policy, perr := classifyPolicy(def.tags)
	if perr != nil {
		return nil, CompileErrors{*perr}
	}

	resolved, errs := c.resolveBody(def)
	if len(errs) > 0 {
		return nil, CompileErrors(errs)
	}

	ev, err := c.linearize(def.ID, policy, resolved)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("compiled event",
			"event", ev.ID,
			"policy", ev.Policy.String(),
			"lines", len(ev.Lines),
			"and_slots", ev.Slots.HighWaterAND,
			"or_slots", ev.Slots.HighWaterOR,
		)
	}
	return ev, nil
}
