// ABOUTME: Tests for marker scanning
// ABOUTME: Covers match offsets, overlapping prefixes, limits and read errors
package mjpeg

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

func TestScanEnd(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		limit  int
		expect int
	}{
		{"at start", []byte{0xFF, 0xD8, 0x01}, 10, 2},
		{"after prefix", []byte{0x01, 0x02, 0xFF, 0xD8}, 10, 4},
		{"repeated first byte", []byte{0xFF, 0xFF, 0xD8}, 10, 3},
		{"broken match", []byte{0xFF, 0x00, 0xD8, 0xFF, 0xD8}, 10, 5},
		{"beyond limit", []byte{0x00, 0x00, 0x00, 0xFF, 0xD8}, 4, -1},
		{"exactly at limit", []byte{0x00, 0x00, 0xFF, 0xD8}, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanEnd(bufio.NewReader(bytes.NewReader(tt.input)), SOI, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Errorf("expected %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestScanStart(t *testing.T) {
	got, err := ScanStart(bytes.NewReader([]byte("abc\xff\xd8")), SOI, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Errorf("expected 3, got %d", got)
	}

	got, _ = ScanStart(bytes.NewReader([]byte("abcdef")), SOI, 4)
	if got != -1 {
		t.Errorf("expected -1 when not found, got %d", got)
	}
}

type failingByteReader struct{ err error }

func (f failingByteReader) ReadByte() (byte, error) { return 0, f.err }

func TestScanEndPropagatesReadError(t *testing.T) {
	boom := errors.New("boom")
	got, err := ScanEnd(failingByteReader{boom}, EOI, 10)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}
