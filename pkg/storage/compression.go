package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

// Compressor packs snapshot columns: integer columns are delta-of-delta
// varint encoded, float columns are XOR encoded, then everything goes through zstd.
type Compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCompressor creates a compressor at level 1 (fastest) to 4 (best)
func NewCompressor(level int) (*Compressor, error) {
	encLevel := zstd.SpeedDefault
	switch level {
	case 1:
		encLevel = zstd.SpeedFastest
	case 2:
		encLevel = zstd.SpeedDefault
	case 3:
		encLevel = zstd.SpeedBetterCompression
	case 4:
		encLevel = zstd.SpeedBestCompression
	default:
		return nil, fmt.Errorf("compression level %d out of range 1-4", level)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Compressor{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// EncodeInts compresses an integer column
func (c *Compressor) EncodeInts(column []int64) []byte {
	if len(column) == 0 {
		return nil
	}

	buf := make([]byte, 0, len(column)*2)
	buf = binary.AppendVarint(buf, column[0])

	var prevDelta int64
	for i := 1; i < len(column); i++ {
		delta := column[i] - column[i-1]
		buf = binary.AppendVarint(buf, delta-prevDelta)
		prevDelta = delta
	}

	return c.encoder.EncodeAll(buf, make([]byte, 0, len(buf)))
}

// DecodeInts reverses EncodeInts for a column of count entries
func (c *Compressor) DecodeInts(data []byte, count int) ([]int64, error) {
	if count == 0 {
		return nil, nil
	}

	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	column := make([]int64, count)
	var prevDelta int64
	for i := 0; i < count; i++ {
		v, n := binary.Varint(raw)
		if n <= 0 {
			return nil, fmt.Errorf("%w: integer column truncated at %d of %d", ErrBadSnapshot, i, count)
		}
		raw = raw[n:]

		if i == 0 {
			column[0] = v
			continue
		}
		delta := v + prevDelta
		column[i] = column[i-1] + delta
		prevDelta = delta
	}

	return column, nil
}

// EncodeFloats compresses a float column bit-exactly
func (c *Compressor) EncodeFloats(column []float64) []byte {
	if len(column) == 0 {
		return nil
	}

	buf := make([]byte, 0, len(column)*8)
	var prevBits uint64
	for _, f := range column {
		bits := math.Float64bits(f)
		buf = binary.LittleEndian.AppendUint64(buf, bits^prevBits)
		prevBits = bits
	}

	return c.encoder.EncodeAll(buf, make([]byte, 0, len(buf)))
}

// DecodeFloats reverses EncodeFloats for a column of count entries
func (c *Compressor) DecodeFloats(data []byte, count int) ([]float64, error) {
	if count == 0 {
		return nil, nil
	}

	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	if len(raw) != count*8 {
		return nil, fmt.Errorf("%w: float column holds %d bytes, want %d", ErrBadSnapshot, len(raw), count*8)
	}

	column := make([]float64, count)
	var prevBits uint64
	for i := range column {
		bits := binary.LittleEndian.Uint64(raw[i*8:]) ^ prevBits
		column[i] = math.Float64frombits(bits)
		prevBits = bits
	}

	return column, nil
}

// EncodeFlags compresses a boolean column as a bitmap
func (c *Compressor) EncodeFlags(column []bool) []byte {
	if len(column) == 0 {
		return nil
	}

	bitmap := make([]byte, (len(column)+7)/8)
	for i, set := range column {
		if set {
			bitmap[i/8] |= 1 << (i % 8)
		}
	}

	return c.encoder.EncodeAll(bitmap, make([]byte, 0, len(bitmap)))
}

// DecodeFlags reverses EncodeFlags for a column of count entries
func (c *Compressor) DecodeFlags(data []byte, count int) ([]bool, error) {
	if count == 0 {
		return nil, nil
	}

	bitmap, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	if len(bitmap) != (count+7)/8 {
		return nil, fmt.Errorf("%w: flag column holds %d bytes, want %d", ErrBadSnapshot, len(bitmap), (count+7)/8)
	}

	column := make([]bool, count)
	for i := range column {
		column[i] = bitmap[i/8]&(1<<(i%8)) != 0
	}

	return column, nil
}

// Close closes the compressor resources
func (c *Compressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}
