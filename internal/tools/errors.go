package tools

import "fmt"

// UnknownToolError is returned by Dispatch for a name no tool answers to.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// MissingRequiredFieldError is returned by Dispatch when a field the tool's
// schema marks required is absent.
type MissingRequiredFieldError struct {
	Tool  string
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Tool, e.Field)
}
