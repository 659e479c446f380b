// Package codec implements the create/encode/decode/set/get operations on
// a compressed BitstringStatusList bitstring. It does no I/O and knows
// nothing about credentials, repositories, or the event log.
package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"

	"github.com/ParichayaHQ/status-manager/pkg/apperr"
)

// BitString is a fixed-length bitmap, physically stored as a packed byte
// slice.
type BitString struct {
	bits   []byte
	length int
}

// New creates a BitString with size bits, all unset.
func New(size int) *BitString {
	numBytes := (size + 7) / 8
	return &BitString{bits: make([]byte, numBytes), length: size}
}

// Decode reverses Encode: base64-decodes then gzip-decompresses the wire
// representation of a status list's encodedList field. size is the
// bitstring's expected length (the manager's configured list size).
func Decode(encoded string, size int) (*BitString, error) {
	if encoded == "" {
		return New(size), nil
	}

	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "codec.Decode", "invalid base64 in encodedList", err)
	}

	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "codec.Decode", "encodedList is not valid gzip", err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "codec.Decode", "failed to decompress encodedList", err)
	}

	bs := &BitString{bits: decompressed, length: size}
	want := (size + 7) / 8
	if len(bs.bits) < want {
		padded := make([]byte, want)
		copy(padded, bs.bits)
		bs.bits = padded
	}
	return bs, nil
}

// Encode gzip-compresses then base64-encodes the bitstring, producing the
// value that goes in a status credential's encodedList field.
func (bs *BitString) Encode() (string, error) {
	var compressed bytes.Buffer
	writer, err := gzip.NewWriterLevel(&compressed, gzip.BestCompression)
	if err != nil {
		return "", apperr.Wrap(apperr.BadRequest, "codec.Encode", "failed to create gzip writer", err)
	}
	if _, err := writer.Write(bs.bits); err != nil {
		writer.Close()
		return "", apperr.Wrap(apperr.BadRequest, "codec.Encode", "failed to compress bitstring", err)
	}
	if err := writer.Close(); err != nil {
		return "", apperr.Wrap(apperr.BadRequest, "codec.Encode", "failed to close gzip writer", err)
	}
	return base64.StdEncoding.EncodeToString(compressed.Bytes()), nil
}

// Set sets the bit at index (1-based, per the status-list allocation
// scheme; index 0 is never assigned) to value.
func (bs *BitString) Set(index int, value bool) error {
	if index < 0 || index >= bs.length {
		return apperr.New(apperr.BadRequest, "codec.Set", "index out of range")
	}
	byteIndex := index / 8
	bitIndex := uint(index % 8)
	if value {
		bs.bits[byteIndex] |= 1 << bitIndex
	} else {
		bs.bits[byteIndex] &^= 1 << bitIndex
	}
	return nil
}

// Get returns the value of the bit at index.
func (bs *BitString) Get(index int) (bool, error) {
	if index < 0 || index >= bs.length {
		return false, apperr.New(apperr.BadRequest, "codec.Get", "index out of range")
	}
	byteIndex := index / 8
	bitIndex := uint(index % 8)
	return (bs.bits[byteIndex] & (1 << bitIndex)) != 0, nil
}

// Clone returns a deep copy.
func (bs *BitString) Clone() *BitString {
	newBits := make([]byte, len(bs.bits))
	copy(newBits, bs.bits)
	return &BitString{bits: newBits, length: bs.length}
}

// Length returns the number of bits in the bitstring.
func (bs *BitString) Length() int {
	return bs.length
}
