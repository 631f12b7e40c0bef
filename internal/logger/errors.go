package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName is not set.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName is not set.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")
)

// ErrorHandler reports events zerolog failed to write on stderr and counts them.
func ErrorHandler(err error) {
	if writeFailures != nil {
		writeFailures.Inc()
	}

	_, _ = fmt.Fprintf(os.Stderr, "gitforge-admin logger: could not write event: %v\n", err)
}
