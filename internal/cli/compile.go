package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quelaag/evsc/internal/harness"
	"github.com/quelaag/evsc/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// compiledEvent is the JSON shape of one compiled event.
type compiledEvent struct {
	ID          int64  `json:"id"`
	Policy      string `json:"policy"`
	LegacyAudit bool   `json:"legacy_audit,omitempty"`
	Lines       int    `json:"lines"`
	ProgramHash string `json:"program_hash"`
	Listing     string `json:"listing"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <scenario.yaml>",
		Short: "Compile a scenario to canonical listings",
		Long: `Compile a scenario's event definitions and print their canonical
instruction listings. The tick script, if present, is ignored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write listings to file instead of stdout")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	s, err := harness.LoadScenario(path)
	if err != nil {
		formatter.Fail(err.Error())
		return &ExitError{Code: ExitCommandError, Message: "load scenario", Err: err}
	}

	res, err := harness.CompileScenario(s, opts.logger())
	if err != nil {
		formatter.Fail(err.Error())
		return &ExitError{Code: ExitFailure, Message: "compile scenario", Err: err}
	}

	if len(s.ExpectErrors) > 0 {
		formatter.Textf("scenario %s: expected compile errors produced (%v)\n", s.Name, s.ExpectErrors)
		return formatter.OK(map[string]any{"scenario": s.Name, "expected_errors": s.ExpectErrors})
	}

	var listings []byte
	events := make([]compiledEvent, 0, len(res.Events))
	for i, ev := range res.Events {
		listing := ir.CanonicalListing(ev)
		if i > 0 {
			listings = append(listings, '\n')
		}
		listings = append(listings, listing...)
		events = append(events, compiledEvent{
			ID:          ev.ID,
			Policy:      ev.Policy.String(),
			LegacyAudit: ev.LegacyRestart,
			Lines:       len(ev.Lines),
			ProgramHash: ir.ProgramHash(ev),
			Listing:     string(listing),
		})
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, listings, 0o644); err != nil {
			formatter.Fail(err.Error())
			return &ExitError{Code: ExitCommandError, Message: "write output", Err: err}
		}
		formatter.Textf("wrote %d event listing(s) to %s\n", len(res.Events), opts.Output)
		return formatter.OK(map[string]any{"scenario": s.Name, "events": events, "output": opts.Output})
	}

	formatter.Textf("%s", listings)
	return formatter.OK(map[string]any{"scenario": s.Name, "events": events})
}
