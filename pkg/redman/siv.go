package redman

import (
	"bytes"
	"fmt"

	"github.com/tink-crypto/tink-go/v2/daead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
	aes_sivpb "github.com/tink-crypto/tink-go/v2/proto/aes_siv_go_proto"
	tinkpb "github.com/tink-crypto/tink-go/v2/proto/tink_go_proto"
	"github.com/tink-crypto/tink-go/v2/tink"

	"google.golang.org/protobuf/proto"
)

const (
	sivName    = "RES-AES256-SIV"
	sivKeySize = 64
	sivTagSize = 16
)

//nolint:gochecknoglobals
var sivAlgorithm = &algorithm{
	name:         sivName,
	id:           2, //nolint:mnd
	keySize:      sivKeySize,
	newPrimitive: newSIV,
}

// NewSIV returns an uninitialized deterministic AES-SIV engine.
// Identical plaintexts encrypt to identical messages under the same key.
func NewSIV(opts ...Option) *Cipher {
	return newCipher(sivAlgorithm, opts...)
}

// siv wraps Tink's deterministic AEAD. The iv component and the envelope
// header are bound as associated data.
type siv struct {
	daead tink.DeterministicAEAD
	iv    []byte
}

func newSIV(km *keyMaterial) (primitive, error) {
	kh, err := newDeterministicAEADKeyHandle(km.cipherKey)
	if err != nil {
		return nil, fmt.Errorf("creating keyset handle: %w", err)
	}

	daeadPrimitive, err := daead.New(kh)
	if err != nil {
		return nil, fmt.Errorf("creating DeterministicAEAD: %w", err)
	}

	return &siv{daead: daeadPrimitive, iv: bytes.Clone(km.iv)}, nil
}

func (p *siv) nonceSize() int { return 0 }

func (p *siv) overhead() int { return sivTagSize }

func (p *siv) seal(_, plaintext, header []byte) ([]byte, error) {
	sealed, err := p.daead.EncryptDeterministically(plaintext, p.associatedData(header))
	if err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}

	return sealed, nil
}

func (p *siv) open(_, sealed, header []byte) ([]byte, error) {
	plaintext, err := p.daead.DecryptDeterministically(sealed, p.associatedData(header))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}

	return plaintext, nil
}

func (p *siv) associatedData(header []byte) []byte {
	ad := make([]byte, 0, len(p.iv)+len(header))
	ad = append(ad, p.iv...)

	return append(ad, header...)
}

// newDeterministicAEADKeyHandle creates a Tink keyset handle for AES-SIV from raw key bytes.
func newDeterministicAEADKeyHandle(key []byte) (*keyset.Handle, error) {
	serializedKey, err := proto.Marshal(&aes_sivpb.AesSivKey{
		Version:  0,
		KeyValue: key,
	})
	if err != nil {
		return nil, fmt.Errorf("serializing AesSivKey: %w", err)
	}

	keySet := &tinkpb.Keyset{
		PrimaryKeyId: 1,
		Key: []*tinkpb.Keyset_Key{
			{
				KeyData: &tinkpb.KeyData{
					TypeUrl:         "type.googleapis.com/google.crypto.tink.AesSivKey",
					Value:           serializedKey,
					KeyMaterialType: tinkpb.KeyData_SYMMETRIC,
				},
				Status:           tinkpb.KeyStatusType_ENABLED,
				KeyId:            1,
				OutputPrefixType: tinkpb.OutputPrefixType_RAW,
			},
		},
	}

	serializedKeyset, err := proto.Marshal(keySet)
	if err != nil {
		return nil, fmt.Errorf("serializing keyset: %w", err)
	}

	handle, err := insecurecleartextkeyset.Read(keyset.NewBinaryReader(bytes.NewReader(serializedKeyset)))
	if err != nil {
		return nil, fmt.Errorf("reading keyset: %w", err)
	}

	return handle, nil
}
