package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotMonotonic = errors.New("column is not non-decreasing")
	ErrTruncated    = errors.New("truncated uvarint column")
)

var bitmask = []byte{
	0b00000001,
	0b00000011,
	0b00000111,
	0b00001111,
	0b00011111,
	0b00111111,
	0b01111111,
	0b11111111,
}

func getLSB(x byte, n uint8) byte {
	if n > 8 {
		panic("can extract at max 8 bits from the number")
	}
	return x & bitmask[n-1]
}

var bitShifts = [10]uint8{7, 7, 7, 7, 7, 7, 7, 7, 7, 1}

var bufPool = sync.Pool{
	New: func() any {
		return new([11]byte)
	},
}

// appendUVarint appends x in little-endian base 128, the layout binary.Uvarint reads.
func appendUVarint(dst []byte, x uint64) []byte {
	var i int
	buf := bufPool.Get().(*[11]byte)
	for i = 0; i < len(bitShifts); i++ {
		buf[i] = getLSB(byte(x), bitShifts[i]) | 0b10000000
		x = x >> bitShifts[i]
		if x == 0 {
			break
		}
	}

	buf[i] = buf[i] & 0b01111111
	dst = append(dst, buf[:i+1]...)
	bufPool.Put(buf)
	return dst
}

// EncodeColumn delta-encodes a non-decreasing column such as a CSR offset
// array or the sorted source column of an edge list.
func EncodeColumn(col []int32) ([]byte, error) {
	buf := make([]byte, 0, len(col)+binary.MaxVarintLen32)
	buf = appendUVarint(buf, uint64(len(col)))
	var prev int32
	for i, v := range col {
		if v < prev {
			return nil, fmt.Errorf("%w: index %d value %d after %d", ErrNotMonotonic, i, v, prev)
		}
		buf = appendUVarint(buf, uint64(v-prev))
		prev = v
	}
	return buf, nil
}

func DecodeColumn(buf []byte) ([]int32, error) {
	n, read := binary.Uvarint(buf)
	if read <= 0 {
		return nil, ErrTruncated
	}
	buf = buf[read:]

	// every value takes at least one byte
	if n > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: %d values declared in %d bytes", ErrTruncated, n, len(buf))
	}
	col := make([]int32, 0, n)
	var prev int32
	for uint64(len(col)) < n {
		d, read := binary.Uvarint(buf)
		if read <= 0 {
			return nil, fmt.Errorf("%w: got %d of %d values", ErrTruncated, len(col), n)
		}
		prev += int32(d)
		col = append(col, prev)
		buf = buf[read:]
	}
	return col, nil
}

// EncodeValues stores arbitrary non-negative ids without delta coding.
func EncodeValues(col []int32) []byte {
	buf := make([]byte, 0, len(col)+binary.MaxVarintLen32)
	buf = appendUVarint(buf, uint64(len(col)))
	for _, v := range col {
		buf = appendUVarint(buf, uint64(uint32(v)))
	}
	return buf
}

func DecodeValues(buf []byte) ([]int32, error) {
	n, read := binary.Uvarint(buf)
	if read <= 0 {
		return nil, ErrTruncated
	}
	buf = buf[read:]

	// every value takes at least one byte
	if n > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: %d values declared in %d bytes", ErrTruncated, n, len(buf))
	}
	col := make([]int32, 0, n)
	for uint64(len(col)) < n {
		v, read := binary.Uvarint(buf)
		if read <= 0 {
			return nil, fmt.Errorf("%w: got %d of %d values", ErrTruncated, len(col), n)
		}
		col = append(col, int32(uint32(v)))
		buf = buf[read:]
	}
	return col, nil
}
