package redman

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	keyMagic   = "RDMK"
	keyVersion = byte(1)
)

// encodeKeyString serializes an algorithm name and its components into a transport string.
//
// Layout before base64url encoding:
//
//	"RDMK" | version | len(name) | name | count | { len(comp) | comp | uint16 len(value) | value }...
func encodeKeyString(name string, components map[string][]byte) (string, error) {
	if len(name) > math.MaxUint8 || len(components) > math.MaxUint8 {
		return "", fmt.Errorf("%w: too many or too long fields", ErrMalformedKey)
	}

	var buf bytes.Buffer

	buf.WriteString(keyMagic)
	buf.WriteByte(keyVersion)
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	buf.WriteByte(byte(len(components)))

	for _, comp := range sortedNames(components) {
		value := components[comp]

		if len(comp) > math.MaxUint8 || len(value) > math.MaxUint16 {
			return "", fmt.Errorf("%w: component %q too long", ErrMalformedKey, comp)
		}

		buf.WriteByte(byte(len(comp)))
		buf.WriteString(comp)

		var size [2]byte

		binary.BigEndian.PutUint16(size[:], uint16(len(value)))
		buf.Write(size[:])
		buf.Write(value)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// decodeKeyString parses a transport string into an algorithm name and raw components.
//
//nolint:cyclop
func decodeKeyString(key string) (string, map[string][]byte, error) {
	data, err := base64.RawURLEncoding.Strict().DecodeString(key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: decoding base64: %w", ErrMalformedKey, err)
	}

	cur := cursor{data: data}

	if magic, ok := cur.next(len(keyMagic)); !ok || string(magic) != keyMagic {
		return "", nil, fmt.Errorf("%w: invalid key magic", ErrMalformedKey)
	}

	version, ok := cur.readByte()
	if !ok || version != keyVersion {
		return "", nil, fmt.Errorf("%w: unsupported key version", ErrMalformedKey)
	}

	name, ok := cur.prefixed8()
	if !ok || len(name) == 0 {
		return "", nil, fmt.Errorf("%w: truncated algorithm name", ErrMalformedKey)
	}

	count, ok := cur.readByte()
	if !ok {
		return "", nil, fmt.Errorf("%w: truncated component count", ErrMalformedKey)
	}

	components := make(map[string][]byte, count)

	for range count {
		comp, ok := cur.prefixed8()
		if !ok || len(comp) == 0 {
			return "", nil, fmt.Errorf("%w: truncated component name", ErrMalformedKey)
		}

		value, ok := cur.prefixed16()
		if !ok {
			return "", nil, fmt.Errorf("%w: truncated value for component %q", ErrMalformedKey, comp)
		}

		if _, dup := components[string(comp)]; dup {
			return "", nil, fmt.Errorf("%w: duplicate component %q", ErrMalformedKey, comp)
		}

		components[string(comp)] = value
	}

	if cur.remaining() != 0 {
		return "", nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedKey, cur.remaining())
	}

	return string(name), components, nil
}

// cursor reads length-prefixed fields from a byte slice.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) next(n int) ([]byte, bool) {
	if n < 0 || c.remaining() < n {
		return nil, false
	}

	out := c.data[c.pos : c.pos+n]
	c.pos += n

	return out, true
}

func (c *cursor) readByte() (byte, bool) {
	b, ok := c.next(1)
	if !ok {
		return 0, false
	}

	return b[0], true
}

func (c *cursor) prefixed8() ([]byte, bool) {
	size, ok := c.readByte()
	if !ok {
		return nil, false
	}

	return c.next(int(size))
}

func (c *cursor) prefixed16() ([]byte, bool) {
	size, ok := c.next(2) //nolint:mnd
	if !ok {
		return nil, false
	}

	return c.next(int(binary.BigEndian.Uint16(size)))
}
