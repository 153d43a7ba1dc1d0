package serviceutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const (
	EXIT_OK    = 0
	EXIT_FATAL = 1
	// the run stopped early but can be resumed
	EXIT_STOPPED = 2
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func Exit(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps a command error to a process exit code, errors without an
// explicit code are fatal.
func ExitCode(err error) int {
	if err == nil {
		return EXIT_OK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return EXIT_FATAL
}

// Returns a context that will live until Ctrl+C is pressed
func SignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			slog.Warn("interrupted, stopping after the current request")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx, cancel
}

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(EXIT_FATAL)
}
