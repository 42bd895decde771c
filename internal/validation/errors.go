// Package validation checks the JSON payloads accepted by the emergency API.
//
// Every parser returns either a typed payload or a *Error that lists each
// violated constraint. The same rules back the client-side checks done by
// internal/client before a request is sent.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Issue is a single violated constraint. Path is the JSON field name, empty
// when the payload as a whole is unusable.
type Issue struct {
	Path    string
	Message string
}

func (i *Issue) Error() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s at %q", i.Message, i.Path)
}

// Error is returned by the payload parsers. Its message joins all issues so a
// client only has to display one string.
type Error struct {
	err error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	for _, issue := range e.Issues() {
		parts = append(parts, issue.Error())
	}
	return "Validation error: " + strings.Join(parts, "; ")
}

// Issues returns the violated constraints in the order they were found
func (e *Error) Issues() []*Issue {
	errs := multierr.Errors(e.err)
	issues := make([]*Issue, 0, len(errs))
	for _, err := range errs {
		var issue *Issue
		if errors.As(err, &issue) {
			issues = append(issues, issue)
		}
	}
	return issues
}

// Unwrap exposes the individual issues to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	return multierr.Errors(e.err)
}

// IsValidationError reports whether err is (or wraps) a *Error
func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

// collector accumulates issues for one payload
type collector struct {
	err error
}

func (c *collector) add(path, message string) {
	c.err = multierr.Append(c.err, &Issue{Path: path, Message: message})
}

func (c *collector) addf(path, format string, args ...interface{}) {
	c.add(path, fmt.Sprintf(format, args...))
}

func (c *collector) result() error {
	if c.err == nil {
		return nil
	}
	return &Error{err: c.err}
}
