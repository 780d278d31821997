package redman

import (
	"bytes"
	"fmt"
)

const (
	envelopeMagic   = "RDMN"
	envelopeVersion = byte(1)
)

const envelopeHeaderSize = len(envelopeMagic) + 2

// newEnvelopeHeader returns the header that prefixes every message of the given algorithm.
func newEnvelopeHeader(alg *algorithm) []byte {
	header := make([]byte, envelopeHeaderSize)
	copy(header, envelopeMagic)

	header[len(envelopeMagic)] = envelopeVersion
	header[len(envelopeMagic)+1] = alg.id

	return header
}

// splitEnvelope separates a decoded message into header, nonce and sealed payload.
// Messages too short to hold a header, nonce and tag are malformed. A header that does not
// match the expected one is an integrity failure, since the header is authenticated data.
func splitEnvelope(data, expected []byte, prim primitive) (nonce, sealed []byte, err error) {
	minSize := envelopeHeaderSize + prim.nonceSize() + prim.overhead()
	if len(data) < minSize {
		return nil, nil, fmt.Errorf("%w: message is %d bytes, need at least %d",
			ErrMalformedCiphertext, len(data), minSize)
	}

	if !bytes.Equal(data[:envelopeHeaderSize], expected) {
		return nil, nil, fmt.Errorf("%w: envelope header does not match %s",
			ErrIntegrity, describeHeader(expected))
	}

	body := data[envelopeHeaderSize:]

	return body[:prim.nonceSize()], body[prim.nonceSize():], nil
}

func describeHeader(header []byte) string {
	return fmt.Sprintf("%s v%d algorithm %d",
		header[:len(envelopeMagic)], header[len(envelopeMagic)], header[len(envelopeMagic)+1])
}
