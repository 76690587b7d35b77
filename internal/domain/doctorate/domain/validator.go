package domain

import (
	"strings"
	"time"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// Check evaluates one business rule and returns nil when it holds.
type Check func() error

// ValidatorList runs data-contract checks first and invariant checks
// second. Every failure of a phase is collected; invariants only run once
// the data contract holds.
type ValidatorList struct {
	Contract   []Check
	Invariants []Check
}

// Validate runs the list and returns a MultipleBusinessErrors or nil.
func (v ValidatorList) Validate() error {
	if err := runChecks(v.Contract); err != nil {
		return err
	}
	return runChecks(v.Invariants)
}

// Validate is shorthand for a ValidatorList with invariants only.
func Validate(checks ...Check) error {
	return ValidatorList{Invariants: checks}.Validate()
}

func runChecks(checks []Check) error {
	var c dterrors.Collector
	for _, check := range checks {
		c.Add(check())
	}
	return c.Err()
}

// Require fails with err when ok is false.
func Require(ok bool, err *dterrors.BusinessError) Check {
	return func() error {
		if ok {
			return nil
		}
		return err
	}
}

// RequireText fails with err when s is blank.
func RequireText(s string, err *dterrors.BusinessError) Check {
	return Require(strings.TrimSpace(s) != "", err)
}

// RequireDocs fails with err when no document identifier is given.
func RequireDocs(docs []string, err *dterrors.BusinessError) Check {
	return Require(len(docs) > 0, err)
}

// RequireTime fails with err when t is unset.
func RequireTime(t *time.Time, err *dterrors.BusinessError) Check {
	return Require(t != nil && !t.IsZero(), err)
}

// Message is the email body a manager writes when recording a decision.
type Message struct {
	Subject string
	Body    string
}

// Checks returns the data-contract checks of a decision message.
func (m Message) Checks() []Check {
	return []Check{
		RequireText(m.Subject, ErrEmailSubjectMissing),
		RequireText(m.Body, ErrEmailBodyMissing),
	}
}

// FirstOf runs checks in order and returns the first failure, so rules
// sharing a code report it once.
func FirstOf(checks ...Check) Check {
	return func() error {
		for _, check := range checks {
			if err := check(); err != nil {
				return err
			}
		}
		return nil
	}
}
