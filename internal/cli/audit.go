package cli

import (
	"github.com/spf13/cobra"

	"github.com/quelaag/evsc/internal/harness"
	"github.com/quelaag/evsc/internal/ledger"
)

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	LegacyOnly bool
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit <scenario.yaml>",
		Short: "Show the compile audit ledger for a scenario",
		Long: `Compile a scenario and print its audit ledger: one row per event
with restart policy, slot high-water marks, and the content-addressed
program hash. Use --legacy to list only events flagged with unverified
restart semantics.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.LegacyOnly, "legacy", false, "only events with unverified restart semantics")

	return cmd
}

func runAudit(opts *AuditOptions, path string, cmd *cobra.Command) error {
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

	records := res.Records
	if opts.LegacyOnly {
		records = filterLegacy(records)
	}

	for _, rec := range records {
		formatter.Textf("event %d policy=%s", rec.EventID, rec.Policy)
		if rec.LegacyAudit {
			formatter.Textf(" legacy_audit")
		}
		formatter.Textf(" lines=%d and=%d or=%d hash=%s\n",
			rec.LineCount, rec.HighWaterAND, rec.HighWaterOR, rec.ProgramHash)
	}
	if len(records) == 0 {
		formatter.Textf("no matching ledger records\n")
	}
	return formatter.OK(map[string]any{"scenario": s.Name, "records": records})
}

func filterLegacy(records []ledger.Record) []ledger.Record {
	var out []ledger.Record
	for _, rec := range records {
		if rec.LegacyAudit {
			out = append(out, rec)
		}
	}
	return out
}
