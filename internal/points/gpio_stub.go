//go:build !linux

package points

import "errors"

// GPIOWriter is not available on non-Linux platforms.
type GPIOWriter struct{}

// NewGPIOWriter returns an error on non-Linux platforms.
func NewGPIOWriter(chipName string, outputs map[string]int) (*GPIOWriter, error) {
	return nil, errors.New("gpio outputs: not supported on this platform (requires Linux)")
}

// Write is not implemented on non-Linux platforms.
func (w *GPIOWriter) Write(pointID string, value bool) error {
	return errors.New("gpio outputs: not supported")
}

// Points is not implemented on non-Linux platforms.
func (w *GPIOWriter) Points() []string { return nil }

// Close is a no-op on non-Linux platforms.
func (w *GPIOWriter) Close() error { return nil }
