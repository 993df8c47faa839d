package directory

import "errors"

var (
	// ErrNotRegistered is returned when unregistering a public key (or a
	// service description) the directory does not hold.
	ErrNotRegistered = errors.New("not registered")

	// ErrEmptyPublicKey is returned for operations given an empty key.
	ErrEmptyPublicKey = errors.New("empty public key")
)
