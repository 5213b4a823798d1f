// ABOUTME: Byte marker scanning over sequential readers
// ABOUTME: Finds SOI/EOI markers with a bounded prefix-tracking scan
package mjpeg

import "io"

var (
	// SOI is the JPEG start-of-image marker.
	SOI = []byte{0xFF, 0xD8}
	// EOI is the JPEG end-of-image marker.
	EOI = []byte{0xFF, 0xD9}
)

// ScanEnd reads r one byte at a time until marker has been seen and returns
// the 1-based offset of the byte following the match. It returns -1 when
// limit bytes were read without a complete match. Read errors are returned
// unchanged together with -1.
//
// Bytes are consumed from r; callers that need them again must mark first.
func ScanEnd(r io.ByteReader, marker []byte, limit int) (int, error) {
	if len(marker) == 0 {
		return 0, nil
	}

	matched := 0
	for i := 0; i < limit; i++ {
		c, err := r.ReadByte()
		if err != nil {
			return -1, err
		}

		if c != marker[matched] {
			// Restart, but the mismatching byte may itself open a match (FF FF D8).
			matched = 0
			if c != marker[0] {
				continue
			}
		}

		matched++
		if matched == len(marker) {
			return i + 1, nil
		}
	}

	return -1, nil
}

// ScanStart is ScanEnd reporting the offset where the marker begins.
func ScanStart(r io.ByteReader, marker []byte, limit int) (int, error) {
	end, err := ScanEnd(r, marker, limit)
	if end < 0 {
		return -1, err
	}
	return end - len(marker), err
}
