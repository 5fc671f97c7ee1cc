package analyzer

import (
	"errors"
	"fmt"

	"github.com/mickamy/qplain/internal/parser"
	"github.com/mickamy/qplain/internal/runner"
)

// FailureKind categorizes a fatal analysis error. Exactly one category is
// reported per failed analysis; nothing partial escapes.
type FailureKind int

const (
	// FailureInternal is any fault not attributable to the plan source or
	// the plan shape.
	FailureInternal FailureKind = iota
	// FailureSource means no plan could be obtained from the database.
	FailureSource
	// FailureMalformedPlan means a plan was obtained but its shape could
	// not be interpreted.
	FailureMalformedPlan
)

// Classify maps an error to its failure category.
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, runner.ErrSourceUnavailable):
		return FailureSource
	case errors.Is(err, parser.ErrMalformedPlan):
		return FailureMalformedPlan
	default:
		return FailureInternal
	}
}

// FailureMessage renders the single categorized message for a fatal error.
func FailureMessage(err error) string {
	switch Classify(err) {
	case FailureSource:
		return fmt.Sprintf("could not obtain a plan: %v", err)
	case FailureMalformedPlan:
		return fmt.Sprintf("plan was malformed: %v", err)
	default:
		return fmt.Sprintf("an internal fault occurred: %v", err)
	}
}
