package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadUint16LE reads a little-endian uint16 from reader
func ReadUint16LE(r io.Reader) (uint16, error) {
	var value uint16
	err := binary.Read(r, binary.LittleEndian, &value)
	if err != nil {
		return 0, fmt.Errorf("failed to read uint16 LE: %w", err)
	}
	return value, nil
}

// ReadUint32BE reads a big-endian uint32 from reader
func ReadUint32BE(r io.Reader) (uint32, error) {
	var value uint32
	err := binary.Read(r, binary.BigEndian, &value)
	if err != nil {
		return 0, fmt.Errorf("failed to read uint32 BE: %w", err)
	}
	return value, nil
}

// ReadUint32LE reads a little-endian uint32 from reader
func ReadUint32LE(r io.Reader) (uint32, error) {
	var value uint32
	err := binary.Read(r, binary.LittleEndian, &value)
	if err != nil {
		return 0, fmt.Errorf("failed to read uint32 LE: %w", err)
	}
	return value, nil
}
