//go:build !linux

package notify

// New returns Discard: desktop notices need the freedesktop service.
func New() (Notifier, error) {
	return Discard, nil
}
