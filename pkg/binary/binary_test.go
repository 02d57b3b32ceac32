package binary

import (
	"bytes"
	"testing"
)

func TestReadUint16LE(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    uint16
		wantErr bool
	}{
		{"Valid data", []byte{0x34, 0x12}, 0x1234, false},
		{"All zeros", []byte{0x00, 0x00}, 0x0000, false},
		{"All ones", []byte{0xFF, 0xFF}, 0xFFFF, false},
		{"Too short", []byte{0x12}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bytes.NewReader(tt.data)
			got, err := ReadUint16LE(reader)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadUint16LE() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ReadUint16LE() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

func TestReadUint32BE(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    uint32
		wantErr bool
	}{
		{"Valid data", []byte{0x12, 0x34, 0x56, 0x78}, 0x12345678, false},
		{"All zeros", []byte{0x00, 0x00, 0x00, 0x00}, 0x00000000, false},
		{"All ones", []byte{0xFF, 0xFF, 0xFF, 0xFF}, 0xFFFFFFFF, false},
		{"Too short", []byte{0x12, 0x34}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bytes.NewReader(tt.data)
			got, err := ReadUint32BE(reader)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadUint32BE() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ReadUint32BE() = 0x%08X, want 0x%08X", got, tt.want)
			}
		})
	}
}

func TestReadUint32LE(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    uint32
		wantErr bool
	}{
		{"Valid data", []byte{0x78, 0x56, 0x34, 0x12}, 0x12345678, false},
		{"All zeros", []byte{0x00, 0x00, 0x00, 0x00}, 0x00000000, false},
		{"All ones", []byte{0xFF, 0xFF, 0xFF, 0xFF}, 0xFFFFFFFF, false},
		{"Too short", []byte{0x12, 0x34}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bytes.NewReader(tt.data)
			got, err := ReadUint32LE(reader)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadUint32LE() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ReadUint32LE() = 0x%08X, want 0x%08X", got, tt.want)
			}
		})
	}
}
