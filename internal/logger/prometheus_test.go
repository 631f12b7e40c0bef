package logger

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusHook(t *testing.T) {
	hook := NewPrometheusHook("test")

	before := testutil.ToFloat64(statements.WithLabelValues("warn"))
	hook.Run(nil, zerolog.WarnLevel, "x")
	hook.Run(nil, zerolog.NoLevel, "x")
	assert.InDelta(t, before+1, testutil.ToFloat64(statements.WithLabelValues("warn")), 0)

	failures := testutil.ToFloat64(writeFailures)
	ErrorHandler(errors.New("disk full"))
	assert.InDelta(t, failures+1, testutil.ToFloat64(writeFailures), 0)
}
