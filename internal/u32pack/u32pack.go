// Package u32pack encodes blocks of uint32 words into compact byte
// buffers for in-memory dormancy, using LZ4 block compression with a raw
// fallback and in-place delta transforms for sorted sequences.
package u32pack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// Mode markers prefixed to every packed block.
const (
	modeRaw byte = 0 // little-endian words stored as-is
	modeLZ4 byte = 1 // LZ4 block-compressed little-endian words
)

// wordSize is the number of bytes in a uint32.
const wordSize = 4

var (
	// ErrTruncated is returned for blocks too short to carry a mode marker.
	ErrTruncated = errors.New("u32pack: truncated block")

	// ErrSizeMismatch is returned when a block does not decode to the
	// expected word count.
	ErrSizeMismatch = errors.New("u32pack: decoded size mismatch")

	// ErrUnknownMode is returned for blocks with an unrecognized marker.
	ErrUnknownMode = errors.New("u32pack: unknown block mode")
)

// Compress encodes values little-endian and LZ4 block-compresses the
// result. Blocks that do not shrink are stored raw; the leading marker
// byte tells the two forms apart, so no input is ever lost to an
// incompressible block.
func Compress(values []uint32) ([]byte, error) {
	buf := new(bytes.Buffer)

	err := binary.Write(buf, binary.LittleEndian, values)
	if err != nil {
		return nil, fmt.Errorf("encode words: %w", err)
	}

	raw := buf.Bytes()
	compressed := make([]byte, lz4.CompressBlockBound(len(raw))+1)

	written, err := lz4.CompressBlock(raw, compressed[1:], nil)
	if err != nil || written == 0 || written >= len(raw) {
		out := make([]byte, len(raw)+1)
		out[0] = modeRaw
		copy(out[1:], raw)

		return out, nil
	}

	compressed[0] = modeLZ4

	return compressed[:written+1], nil
}

// Decompress fills dst from a block produced by Compress. The length of
// dst must equal the word count of the original slice.
func Decompress(data []byte, dst []uint32) error {
	if len(data) == 0 {
		return ErrTruncated
	}

	payload := data[1:]

	var raw []byte

	switch data[0] {
	case modeRaw:
		raw = payload
	case modeLZ4:
		raw = make([]byte, len(dst)*wordSize)

		written, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return fmt.Errorf("lz4 block: %w", err)
		}

		if written != len(raw) {
			return fmt.Errorf("%w: %d bytes instead of %d", ErrSizeMismatch, written, len(raw))
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, data[0])
	}

	if len(raw) != len(dst)*wordSize {
		return fmt.Errorf("%w: %d bytes for %d words", ErrSizeMismatch, len(raw), len(dst))
	}

	err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, dst)
	if err != nil {
		return fmt.Errorf("decode words: %w", err)
	}

	return nil
}

// DeltaEncode replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged. Sorted
// sequences turn into small, repetitive values that compress better.
func DeltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecode restores original values from deltas by an in-place
// prefix sum.
func DeltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
