// Package encryption encrypts and decrypts files concurrently with a redman engine.
// Each file is one message; outputs are written atomically and carry the
// executable bit of the input across a round trip.
package encryption
