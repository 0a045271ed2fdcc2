package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Compile error codes (E100-E199).
const (
	ErrUnknownTest              = "E101" // test name not in registry
	ErrArgumentType             = "E102" // argument fails schema validation
	ErrNestingDepth             = "E103" // combinator nesting exceeds VM limit
	ErrSlotExhaustion           = "E104" // more live groups than the pool holds
	ErrMissingRestartPolicy     = "E105" // event has no restart tag
	ErrConflictingRestartPolicy = "E106" // event has more than one restart tag
	ErrUsage                    = "E107" // construct used where not permitted
	ErrEmptyGroup               = "E108" // combinator with no children
	ErrUnknownSymbol            = "E109" // symbolic flag not in namespace table
)

// CompileError is one error detected at compile time. Where locates the
// offending construct (e.g. "body[2]", "body[0].all_of[1]").
type CompileError struct {
	Code    string `json:"code"`
	Where   string `json:"where"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Where != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Where, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// CompileErrors collects every error found before compilation aborted.
// Validation does not fail-fast; the caller sees all diagnostics at once.
type CompileErrors []CompileError

// Error implements the error interface.
func (e CompileErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d compile errors:", len(e))
	for i := range e {
		b.WriteString("\n  ")
		b.WriteString(e[i].Error())
	}
	return b.String()
}

// HasCode reports whether err is (or contains) a CompileError with the
// given code. Uses errors.As to handle wrapped errors.
func HasCode(err error, code string) bool {
	var single *CompileError
	if errors.As(err, &single) {
		return single.Code == code
	}
	var many CompileErrors
	if errors.As(err, &many) {
		for i := range many {
			if many[i].Code == code {
				return true
			}
		}
	}
	return false
}

// IsSlotExhaustion reports whether err signals slot pool exhaustion. The
// caller must restructure or split the event; the compiler never
// auto-splits.
func IsSlotExhaustion(err error) bool { return HasCode(err, ErrSlotExhaustion) }

// IsUsageError reports whether err signals a construct used where it is
// not permitted.
func IsUsageError(err error) bool { return HasCode(err, ErrUsage) }
