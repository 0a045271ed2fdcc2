package registry

import "fmt"

// DuplicateTestError is returned when a test name is registered twice.
type DuplicateTestError struct {
	Name string
}

func (e *DuplicateTestError) Error() string {
	return fmt.Sprintf("test %q is already registered", e.Name)
}

// UnknownTestError is returned when a looked-up test name is not in the
// registry.
type UnknownTestError struct {
	Name string
}

func (e *UnknownTestError) Error() string {
	return fmt.Sprintf("unknown test %q", e.Name)
}

// ArgumentTypeError is returned when an argument fails schema validation.
// It names the offending parameter and its position.
type ArgumentTypeError struct {
	Test    string
	Param   string
	Index   int
	Message string
}

func (e *ArgumentTypeError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %s", e.Test, e.Message)
	}
	return fmt.Sprintf("%s: argument %q (position %d): %s", e.Test, e.Param, e.Index, e.Message)
}
