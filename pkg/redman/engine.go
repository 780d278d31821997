package redman

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Engine is a symmetric encryption scheme bound to one set of key material.
//
// Engines are not safe for concurrent mutation: InitializeEncryption, SetKey
// and LoadKey must not race with any other call. Once initialized, Encrypt,
// Decrypt, ToKey and Name may be called concurrently.
type Engine interface {
	// Name returns the fixed identifier of the algorithm.
	Name() string
	// CreateKey generates fresh key material and returns it as a transport string.
	// The engine state is not changed.
	CreateKey() (string, error)
	// InitializeEncryption replaces the key material with the one encoded in key.
	InitializeEncryption(key string) error
	// Encrypt returns the encoded, authenticated message for plaintext.
	Encrypt(plaintext string) (string, error)
	// Decrypt reverses Encrypt. It never returns partial plaintext.
	Decrypt(ciphertext string) (string, error)
	// ToKey exports the key material as component name to base64 value.
	ToKey() (map[string]string, error)
	// SetKey replaces the key material with the components of a ToKey mapping.
	SetKey(components map[string]string) error
	// LoadKey replaces the key material with the contents of a key file.
	LoadKey(path string) error
	// SaveKey writes the key material to a key file.
	SaveKey(path string) error
}

var _ Engine = (*Cipher)(nil)

// Option configures a Cipher.
type Option func(*Cipher)

// WithRandom sets the source of key and nonce randomness. It defaults to crypto/rand.Reader.
// The reader must be safe for concurrent use if Encrypt is called concurrently.
func WithRandom(r io.Reader) Option {
	return func(c *Cipher) {
		c.random = r
	}
}

// Cipher implements Engine for one registered algorithm.
type Cipher struct {
	// alg describes the algorithm variant
	alg *algorithm

	// random supplies key and nonce bytes
	random io.Reader

	// key is the installed key material, nil until initialized
	key *keyMaterial

	// prim is the cipher construction derived from key
	prim primitive

	// header prefixes every message produced by this engine
	header []byte
}

// New returns an uninitialized engine for the named algorithm.
func New(name string, opts ...Option) (*Cipher, error) {
	alg, err := lookupAlgorithm(name)
	if err != nil {
		return nil, err
	}

	return newCipher(alg, opts...), nil
}

// FromKeyString returns an engine for the algorithm named in key, initialized with it.
func FromKeyString(key string, opts ...Option) (*Cipher, error) {
	name, components, err := decodeKeyString(key)
	if err != nil {
		return nil, err
	}

	return newInitialized(name, components, opts...)
}

// FromKeyFile returns an engine for the algorithm named in the key file at path, initialized with it.
func FromKeyFile(path string, opts ...Option) (*Cipher, error) {
	name, components, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}

	return newInitialized(name, components, opts...)
}

func newInitialized(name string, components map[string][]byte, opts ...Option) (*Cipher, error) {
	c, err := New(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}

	if err := c.install(components); err != nil {
		return nil, err
	}

	return c, nil
}

func newCipher(alg *algorithm, opts ...Option) *Cipher {
	c := &Cipher{
		alg:    alg,
		random: rand.Reader,
		header: newEnvelopeHeader(alg),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the algorithm identifier.
func (c *Cipher) Name() string {
	return c.alg.name
}

// Initialized reports whether key material is installed.
func (c *Cipher) Initialized() bool {
	return c.key != nil
}

// CreateKey generates a random cipher key and iv sized for the algorithm.
func (c *Cipher) CreateKey() (string, error) {
	components, err := c.generate()
	if err != nil {
		return "", err
	}

	return encodeKeyString(c.alg.name, components)
}

// CreateKeyFrom wraps an existing raw cipher key into a transport string with a fresh iv.
func (c *Cipher) CreateKeyFrom(cipherKey []byte) (string, error) {
	iv, err := c.read(IVSize)
	if err != nil {
		return "", err
	}

	components := map[string][]byte{ComponentCipherKey: cipherKey, ComponentIV: iv}

	if _, err := newKeyMaterial(c.alg, components); err != nil {
		return "", err
	}

	return encodeKeyString(c.alg.name, components)
}

func (c *Cipher) generate() (map[string][]byte, error) {
	cipherKey, err := c.read(c.alg.keySize)
	if err != nil {
		return nil, err
	}

	iv, err := c.read(IVSize)
	if err != nil {
		return nil, err
	}

	return map[string][]byte{ComponentCipherKey: cipherKey, ComponentIV: iv}, nil
}

func (c *Cipher) read(size int) ([]byte, error) {
	buf := make([]byte, size)

	if _, err := io.ReadFull(c.random, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRandomSource, err)
	}

	return buf, nil
}

// InitializeEncryption parses key and replaces the current key material.
func (c *Cipher) InitializeEncryption(key string) error {
	name, components, err := decodeKeyString(key)
	if err != nil {
		return err
	}

	if name != c.alg.name {
		return fmt.Errorf("%w: key is for %q, engine is %q", ErrMalformedKey, name, c.alg.name)
	}

	return c.install(components)
}

// SetKey replaces the current key material with base64-encoded components.
func (c *Cipher) SetKey(components map[string]string) error {
	raw := make(map[string][]byte, len(components))

	for name, value := range components {
		decoded, err := base64.StdEncoding.Strict().DecodeString(value)
		if err != nil {
			return fmt.Errorf("%w: component %q: %w", ErrMalformedKey, name, err)
		}

		raw[name] = decoded
	}

	return c.install(raw)
}

// LoadKey reads a key file and replaces the current key material.
func (c *Cipher) LoadKey(path string) error {
	name, components, err := readKeyFile(path)
	if err != nil {
		return err
	}

	if name != c.alg.name {
		return fmt.Errorf("%w: key file %q is for %q, engine is %q", ErrMalformedKey, path, name, c.alg.name)
	}

	return c.install(components)
}

// SaveKey writes the current key material to path with owner-only permissions.
func (c *Cipher) SaveKey(path string) error {
	if c.key == nil {
		return ErrUninitialized
	}

	return writeKeyFile(path, c.alg.name, c.key.components())
}

// install validates components, derives the primitive and swaps out the old key material.
func (c *Cipher) install(components map[string][]byte) error {
	km, err := newKeyMaterial(c.alg, components)
	if err != nil {
		return err
	}

	prim, err := c.alg.newPrimitive(km)
	if err != nil {
		km.wipe()

		return fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}

	if c.key != nil {
		c.key.wipe()
	}

	c.key = km
	c.prim = prim

	return nil
}

// ToKey exports the current key material.
func (c *Cipher) ToKey() (map[string]string, error) {
	if c.key == nil {
		return nil, ErrUninitialized
	}

	components := c.key.components()
	out := make(map[string]string, len(components))

	for name, value := range components {
		out[name] = base64.StdEncoding.EncodeToString(value)
	}

	return out, nil
}

// Encrypt seals plaintext under a fresh nonce and returns the base64url message.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if c.key == nil {
		return "", ErrUninitialized
	}

	nonce, err := c.read(c.prim.nonceSize())
	if err != nil {
		return "", err
	}

	sealed, err := c.prim.seal(nonce, []byte(plaintext), c.header)
	if err != nil {
		return "", err
	}

	message := make([]byte, 0, len(c.header)+len(nonce)+len(sealed))
	message = append(message, c.header...)
	message = append(message, nonce...)
	message = append(message, sealed...)

	return base64.RawURLEncoding.EncodeToString(message), nil
}

// Decrypt authenticates and decrypts a message produced by Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if c.key == nil {
		return "", ErrUninitialized
	}

	data, err := base64.RawURLEncoding.Strict().DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64: %w", ErrMalformedCiphertext, err)
	}

	nonce, sealed, err := splitEnvelope(data, c.header, c.prim)
	if err != nil {
		return "", err
	}

	plaintext, err := c.prim.open(nonce, sealed, c.header)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// String implements fmt.Stringer without revealing key material.
func (c *Cipher) String() string {
	if c == nil {
		return "<nil>"
	}

	state := "uninitialized"
	if c.key != nil {
		state = "initialized, key REDACTED"
	}

	return fmt.Sprintf("redman.Cipher{%s, %s}", c.alg.name, state)
}

// GoString implements fmt.GoStringer without revealing key material.
func (c *Cipher) GoString() string {
	return c.String()
}
