// Package printer provides the byte channels a rendered receipt is
// written to. Every transport exposes the same open/write/close
// contract; the pipeline depends only on the Transport interface and
// guarantees Close on every exit path.
package printer

import "errors"

// ErrNotOpen is returned by Write when Open has not succeeded.
var ErrNotOpen = errors.New("transport not open")

// Transport is a uniform channel to a physical (or simulated) printer.
type Transport interface {
	// Open establishes the channel. It fails with a connectivity
	// error when the device is unavailable.
	Open() error

	// Write sends data and returns how many bytes were accepted.
	Write(data []byte) (int, error)

	// Close releases the channel. Safe to call after a failed Open.
	Close() error
}
