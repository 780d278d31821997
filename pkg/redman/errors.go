package redman

import "errors"

var (
	// ErrRandomSource is returned when the random source fails to produce key or nonce bytes.
	ErrRandomSource = errors.New("random source unavailable")
	// ErrMalformedKey is returned when key material cannot be parsed into the expected component set.
	ErrMalformedKey = errors.New("malformed key")
	// ErrUninitialized is returned when an operation requires key material that has not been set.
	ErrUninitialized = errors.New("encryption not initialized")
	// ErrIntegrity is returned when a ciphertext fails authentication.
	ErrIntegrity = errors.New("integrity check failed")
	// ErrMalformedCiphertext is returned when a ciphertext cannot be decoded.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	// ErrKeyFileNotFound is returned when a key file does not exist.
	ErrKeyFileNotFound = errors.New("key file not found")
	// ErrMalformedKeyFile is returned when a key file has invalid syntax.
	// Errors carrying it also match ErrMalformedKey.
	ErrMalformedKeyFile = errors.New("malformed key file")
	// ErrKeyFilePermission is returned when a key file cannot be accessed.
	ErrKeyFilePermission = errors.New("key file permission denied")
	// ErrUnknownAlgorithm is returned when no algorithm is registered under a name.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)
