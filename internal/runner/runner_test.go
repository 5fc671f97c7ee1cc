package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mickamy/qplain/internal/runner"
)

func TestRunEmptyDSN(t *testing.T) {
	_, err := runner.Run(context.Background(), "  ", "SELECT 1", runner.Options{})
	assert.ErrorIs(t, err, runner.ErrSourceUnavailable)
}

func TestRunConnEmptyStatement(t *testing.T) {
	_, err := runner.RunConn(context.Background(), nil, "   ", runner.Options{})
	assert.ErrorIs(t, err, runner.ErrSourceUnavailable)
}
