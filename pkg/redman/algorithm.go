package redman

import (
	"fmt"
	"slices"
)

// DefaultAlgorithm is the algorithm used when none is requested.
const DefaultAlgorithm = ctrHMACName

// primitive is the cipher construction behind an engine.
// Implementations are immutable once created and safe for concurrent use.
type primitive interface {
	// nonceSize is the number of random bytes consumed per message.
	nonceSize() int
	// overhead is the number of bytes seal adds to the plaintext.
	overhead() int
	// seal encrypts and authenticates plaintext, binding header as associated data.
	seal(nonce, plaintext, header []byte) ([]byte, error)
	// open reverses seal. Authentication failures wrap ErrIntegrity.
	open(nonce, sealed, header []byte) ([]byte, error)
}

// algorithm describes one RES variant.
type algorithm struct {
	name    string
	id      byte
	keySize int

	newPrimitive func(km *keyMaterial) (primitive, error)
}

//nolint:gochecknoglobals // read-only after package initialization
var algorithms = []*algorithm{ctrHMACAlgorithm, sivAlgorithm, xchachaAlgorithm}

func lookupAlgorithm(name string) (*algorithm, error) {
	for _, alg := range algorithms {
		if alg.name == name {
			return alg, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Algorithms returns the names of all registered algorithms, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))

	for _, alg := range algorithms {
		names = append(names, alg.name)
	}

	slices.Sort(names)

	return names
}
