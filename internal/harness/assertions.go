package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quelaag/evsc/internal/engine"
)

// checkExpectedErrors verifies the scenario's compile outcome: every
// expected code present, nothing unexpected, and no error at all when
// none was expected.
func checkExpectedErrors(s *Scenario, res *Result) error {
	var got []string
	for _, errs := range res.Errors {
		for _, e := range errs {
			got = append(got, string(e.Code))
		}
	}

	if len(s.ExpectErrors) == 0 {
		if len(got) > 0 {
			return fmt.Errorf("scenario %q: unexpected compile errors: %v", s.Name, res.Errors)
		}
		return nil
	}

	want := append([]string{}, s.ExpectErrors...)
	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		return fmt.Errorf("scenario %q: expected error codes %v, got %v", s.Name, want, got)
	}
	return nil
}

// checkTask verifies one task expectation after a tick.
func checkTask(task *engine.Task, exp *TaskExpect) error {
	if task == nil {
		return fmt.Errorf("event %d was never spawned", exp.Event)
	}

	if exp.State != "" {
		want, err := parseState(exp.State)
		if err != nil {
			return err
		}
		if task.State() != want {
			return fmt.Errorf("event %d: state = %s, want %s", exp.Event, task.State(), want)
		}
	}
	if exp.Suspended != nil && task.Suspended() != *exp.Suspended {
		return fmt.Errorf("event %d: suspended = %v, want %v", exp.Event, task.Suspended(), *exp.Suspended)
	}
	if exp.Main != nil && task.Main() != *exp.Main {
		return fmt.Errorf("event %d: main = %v, want %v", exp.Event, task.Main(), *exp.Main)
	}
	if exp.LiveSlots != nil && task.LiveSlots() != *exp.LiveSlots {
		return fmt.Errorf("event %d: live slots = %d, want %d", exp.Event, task.LiveSlots(), *exp.LiveSlots)
	}
	return nil
}

func parseState(name string) (engine.TaskState, error) {
	switch name {
	case "initial":
		return engine.StateInitial, nil
	case "running":
		return engine.StateRunning, nil
	case "ended":
		return engine.StateEnded, nil
	case "awaiting_restart":
		return engine.StateAwaitingRestart, nil
	}
	return 0, fmt.Errorf("unknown task state %q", name)
}
