package redman

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	ctrHMACName    = "RES-AES256-CTR-HMAC-SHA256"
	ctrHMACKeySize = 32
	ctrHMACTagSize = sha256.Size
)

//nolint:gochecknoglobals
var ctrHMACAlgorithm = &algorithm{
	name:         ctrHMACName,
	id:           1,
	keySize:      ctrHMACKeySize,
	newPrimitive: newCTRHMAC,
}

// NewCTRHMAC returns an uninitialized AES-256-CTR + HMAC-SHA256 engine.
func NewCTRHMAC(opts ...Option) *Cipher {
	return newCipher(ctrHMACAlgorithm, opts...)
}

// ctrHMAC is AES-256-CTR with encrypt-then-MAC over header, IV and ciphertext.
type ctrHMAC struct {
	block  cipher.Block
	macKey []byte
}

func newCTRHMAC(km *keyMaterial) (primitive, error) {
	encKey, macKey, err := deriveCTRHMACKeys(km)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return &ctrHMAC{block: block, macKey: macKey}, nil
}

func (p *ctrHMAC) nonceSize() int { return aes.BlockSize }

func (p *ctrHMAC) overhead() int { return ctrHMACTagSize }

func (p *ctrHMAC) seal(nonce, plaintext, header []byte) ([]byte, error) {
	sealed := make([]byte, len(plaintext), len(plaintext)+ctrHMACTagSize)
	cipher.NewCTR(p.block, nonce).XORKeyStream(sealed, plaintext)

	return append(sealed, p.tag(header, nonce, sealed)...), nil
}

func (p *ctrHMAC) open(nonce, sealed, header []byte) ([]byte, error) {
	if len(sealed) < ctrHMACTagSize {
		return nil, fmt.Errorf("%w: authentication tag missing", ErrMalformedCiphertext)
	}

	ciphertext := sealed[:len(sealed)-ctrHMACTagSize]
	tag := sealed[len(sealed)-ctrHMACTagSize:]

	if !hmac.Equal(p.tag(header, nonce, ciphertext), tag) {
		return nil, fmt.Errorf("%w: authentication failed", ErrIntegrity)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(p.block, nonce).XORKeyStream(plaintext, ciphertext)

	return plaintext, nil
}

func (p *ctrHMAC) tag(header, nonce, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, p.macKey)
	mac.Write(header)
	mac.Write(nonce)
	mac.Write(ciphertext)

	return mac.Sum(nil)
}

// deriveCTRHMACKeys splits the cipher key into independent encryption and MAC keys.
func deriveCTRHMACKeys(km *keyMaterial) ([]byte, []byte, error) {
	const (
		hkdfOutputLen = 64
		encKeyLen     = 32
	)

	derived, err := deriveKey(km, "redman/ctr-hmac-sha256", hkdfOutputLen)
	if err != nil {
		return nil, nil, err
	}

	return derived[:encKeyLen], derived[encKeyLen:], nil
}

// deriveKey expands the cipher key with HKDF-SHA256, salted with the iv component.
func deriveKey(km *keyMaterial, info string, size int) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, km.cipherKey, km.iv, []byte(info))
	derived := make([]byte, size)

	if _, err := io.ReadFull(hkdfReader, derived); err != nil {
		return nil, fmt.Errorf("deriving keys: %w", err)
	}

	return derived, nil
}
