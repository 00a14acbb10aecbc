package sim

import "errors"

// SinkError classifies a sink submission failure. Retryable errors are
// logged and the next tick proceeds; fatal errors suspend emission for the
// configured backoff window.
type SinkError struct {
	Fatal bool
	Err   error
}

func (e *SinkError) Error() string {
	if e.Fatal {
		return "sink fatal: " + e.Err.Error()
	}
	return "sink retryable: " + e.Err.Error()
}

func (e *SinkError) Unwrap() error { return e.Err }

// Retryable wraps err as a retryable sink error.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &SinkError{Err: err}
}

// Fatal wraps err as a fatal sink error.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &SinkError{Fatal: true, Err: err}
}

// IsFatal reports whether err carries a fatal sink classification.
// Unclassified errors are treated as retryable.
func IsFatal(err error) bool {
	var se *SinkError
	return errors.As(err, &se) && se.Fatal
}
