// Package checksum implements the 8-bit one's-complement frame checksum
// used by serial weather station consoles that emit comma-framed ASCII
// records with a trailing decimal checksum field.
package checksum

import (
	"bytes"
	"fmt"
	"strconv"
)

// Sum returns the 8-bit one's-complement checksum of b: the low byte of
// the sum of all bytes, inverted.
func Sum(b []byte) uint8 {
	var s uint8
	for _, c := range b {
		s += c
	}
	return ^s
}

// VerifyFrame validates a comma-framed ASCII record whose final field is
// the decimal checksum computed over every byte up to and including the
// last comma. It returns the payload (everything before the last comma)
// on success.
func VerifyFrame(line []byte) ([]byte, error) {
	idx := bytes.LastIndexByte(line, ',')
	if idx < 0 {
		return nil, fmt.Errorf("frame has no checksum field: %q", line)
	}

	covered := line[:idx+1]
	field := bytes.TrimSpace(line[idx+1:])
	want, err := strconv.ParseUint(string(field), 10, 8)
	if err != nil {
		return nil, fmt.Errorf("frame checksum field %q is not a number: %w", field, err)
	}

	if got := Sum(covered); got != uint8(want) {
		return nil, fmt.Errorf("frame checksum mismatch: calculated %d, frame carries %d", got, want)
	}

	return line[:idx], nil
}

// AppendFrame appends the checksum field to a comma-terminated payload,
// producing a complete frame. The payload must already end with a comma.
func AppendFrame(payload []byte) []byte {
	return strconv.AppendUint(payload, uint64(Sum(payload)), 10)
}
