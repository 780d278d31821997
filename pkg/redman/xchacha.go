package redman

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const xchachaName = "RES-XCHACHA20-POLY1305"

//nolint:gochecknoglobals
var xchachaAlgorithm = &algorithm{
	name:         xchachaName,
	id:           3, //nolint:mnd
	keySize:      chacha20poly1305.KeySize,
	newPrimitive: newXChaCha,
}

// NewXChaCha returns an uninitialized XChaCha20-Poly1305 engine.
func NewXChaCha(opts ...Option) *Cipher {
	return newCipher(xchachaAlgorithm, opts...)
}

type xchacha struct {
	aead cipher.AEAD
}

func newXChaCha(km *keyMaterial) (primitive, error) {
	key, err := deriveKey(km, "redman/xchacha20-poly1305", chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return &xchacha{aead: aead}, nil
}

func (p *xchacha) nonceSize() int { return chacha20poly1305.NonceSizeX }

func (p *xchacha) overhead() int { return chacha20poly1305.Overhead }

func (p *xchacha) seal(nonce, plaintext, header []byte) ([]byte, error) {
	return p.aead.Seal(nil, nonce, plaintext, header), nil
}

func (p *xchacha) open(nonce, sealed, header []byte) ([]byte, error) {
	plaintext, err := p.aead.Open(nil, nonce, sealed, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}

	return plaintext, nil
}
