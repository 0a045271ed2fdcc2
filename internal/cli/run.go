package cli

import (
	"github.com/spf13/cobra"

	"github.com/quelaag/evsc/internal/harness"
)

// taskReport is the JSON shape of one task's final state.
type taskReport struct {
	Event     int64  `json:"event"`
	State     string `json:"state"`
	Suspended bool   `json:"suspended"`
	Main      bool   `json:"main"`
	LiveSlots int    `json:"live_slots"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario on the reference engine",
		Long: `Compile a scenario and execute its tick script against a scripted
world, checking every task expectation along the way.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runRun(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	s, err := harness.LoadScenario(path)
	if err != nil {
		formatter.Fail(err.Error())
		return &ExitError{Code: ExitCommandError, Message: "load scenario", Err: err}
	}

	res, err := harness.Run(s, opts.logger())
	if err != nil {
		formatter.Fail(err.Error())
		return &ExitError{Code: ExitFailure, Message: "run scenario", Err: err}
	}

	reports := make([]taskReport, 0, len(res.Events))
	for _, ev := range res.Events {
		task, ok := res.Tasks[ev.ID]
		if !ok {
			continue
		}
		reports = append(reports, taskReport{
			Event:     ev.ID,
			State:     task.State().String(),
			Suspended: task.Suspended(),
			Main:      task.Main(),
			LiveSlots: task.LiveSlots(),
		})
	}

	formatter.Textf("scenario %s: %d event(s), %d tick(s)\n", s.Name, len(res.Events), len(s.Ticks))
	for _, r := range reports {
		formatter.Textf("  event %d: %s", r.Event, r.State)
		if r.Suspended {
			formatter.Textf(" (suspended)")
		}
		formatter.Textf("\n")
	}
	return formatter.OK(map[string]any{
		"scenario": s.Name,
		"ticks":    len(s.Ticks),
		"tasks":    reports,
	})
}
