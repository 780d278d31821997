package redman

import (
	"fmt"
	"slices"
)

const (
	// ComponentCipherKey names the secret key component.
	ComponentCipherKey = "cipherKey"
	// ComponentIV names the per-key diversifier component.
	ComponentIV = "iv"

	// IVSize is the size of the iv component in bytes.
	IVSize = 16
)

// keyMaterial is the secret state of one engine.
type keyMaterial struct {
	cipherKey []byte
	iv        []byte
}

// newKeyMaterial validates raw components against the algorithm and copies them.
func newKeyMaterial(alg *algorithm, components map[string][]byte) (*keyMaterial, error) {
	for name := range components {
		if name != ComponentCipherKey && name != ComponentIV {
			return nil, fmt.Errorf("%w: unexpected component %q", ErrMalformedKey, name)
		}
	}

	cipherKey, ok := components[ComponentCipherKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing component %q", ErrMalformedKey, ComponentCipherKey)
	}

	iv, ok := components[ComponentIV]
	if !ok {
		return nil, fmt.Errorf("%w: missing component %q", ErrMalformedKey, ComponentIV)
	}

	if len(cipherKey) != alg.keySize {
		return nil, fmt.Errorf("%w: %s requires a %d-byte %s, got %d bytes",
			ErrMalformedKey, alg.name, alg.keySize, ComponentCipherKey, len(cipherKey))
	}

	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: %s must be %d bytes, got %d bytes", ErrMalformedKey, ComponentIV, IVSize, len(iv))
	}

	return &keyMaterial{
		cipherKey: slices.Clone(cipherKey),
		iv:        slices.Clone(iv),
	}, nil
}

// components returns copies of the raw components keyed by name.
func (km *keyMaterial) components() map[string][]byte {
	return map[string][]byte{
		ComponentCipherKey: slices.Clone(km.cipherKey),
		ComponentIV:        slices.Clone(km.iv),
	}
}

// wipe zeroes the key bytes.
func (km *keyMaterial) wipe() {
	clear(km.cipherKey)
	clear(km.iv)
}

// sortedNames returns the keys of components in canonical order.
func sortedNames[V any](components map[string]V) []string {
	names := make([]string, 0, len(components))

	for name := range components {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
