package analyzer

import "fmt"

// NavigationError means the page could not be loaded: DNS failure, timeout,
// unreachable host or an error status with nothing rendered.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// StabilizationError means the page loaded but the DOM-inspection helper
// never became ready.
type StabilizationError struct {
	URL string
	Err error
}

func (e *StabilizationError) Error() string {
	return fmt.Sprintf("page %s did not stabilize: %v", e.URL, e.Err)
}

func (e *StabilizationError) Unwrap() error {
	return e.Err
}

// BatchError reports which URL aborted a multi-URL run.
type BatchError struct {
	Batch int
	URL   string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d: %s: %v", e.Batch, e.URL, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
