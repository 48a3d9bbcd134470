//go:build windows

// Package stderr is a no-op on Windows, whose audio stack does not write
// to the console.
package stderr

import "os"

// Capture does nothing on Windows.
type Capture struct{}

// Start returns a capture that leaves stderr alone.
func Start(func(string)) (*Capture, error) {
	return &Capture{}, nil
}

// WriteOriginal writes to stderr.
func (*Capture) WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop does nothing.
func (*Capture) Stop() {}
