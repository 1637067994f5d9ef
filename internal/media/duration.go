package media

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Duration returns the playback length of data in whole seconds when the
// container header carries enough information. Only RIFF/WAVE is read;
// everything else reports false.
func Duration(data []byte) (int, bool) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return 0, false
	}

	var byteRate uint32
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8

		switch id {
		case "fmt ":
			// audioFormat(2) channels(2) sampleRate(4) byteRate(4)
			if body+12 > len(data) {
				return 0, false
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			if byteRate == 0 {
				return 0, false
			}
			return int(math.Round(float64(size) / float64(byteRate))), true
		}

		// Chunks are word aligned.
		off = body + int(size) + int(size&1)
	}
	return 0, false
}
