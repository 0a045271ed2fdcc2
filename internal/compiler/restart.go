package compiler

import (
	"fmt"
	"strings"

	"github.com/quelaag/evsc/internal/ir"
)

// classifyPolicy enforces the one-policy-per-event rule. The policy is
// fixed at compile time and never changes post-compilation.
func classifyPolicy(tags []ir.RestartPolicy) (ir.RestartPolicy, *CompileError) {
	switch len(tags) {
	case 0:
		return ir.PolicyUnset, &CompileError{
			Code:    ErrMissingRestartPolicy,
			Where:   "tags",
			Message: "event has no restart policy tag",
		}
	case 1:
		if tags[0] == ir.PolicyUnset {
			return ir.PolicyUnset, &CompileError{
				Code:    ErrMissingRestartPolicy,
				Where:   "tags",
				Message: "restart policy tag is unset",
			}
		}
		return tags[0], nil
	default:
		names := make([]string, len(tags))
		for i, tag := range tags {
			names[i] = tag.String()
		}
		return ir.PolicyUnset, &CompileError{
			Code:    ErrConflictingRestartPolicy,
			Where:   "tags",
			Message: fmt.Sprintf("event has %d restart policy tags (%s)", len(tags), strings.Join(names, ", ")),
		}
	}
}
