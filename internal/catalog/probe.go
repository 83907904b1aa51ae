package catalog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const probeWindow = 8192

// kbit/s indexed by [mpeg1?0:1][layer I,II,III][bitrate index]
var bitrates = [2][3][16]int{
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
	},
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	},
}

type frameHeader struct {
	mpeg1   bool
	layer   int
	bitrate int
}

func parseFrameHeader(hdr uint32) (frameHeader, bool) {
	if hdr>>21 != 0x7FF {
		return frameHeader{}, false
	}

	version := (hdr >> 19) & 0x03
	layer := (hdr >> 17) & 0x03
	bitrateIdx := (hdr >> 12) & 0x0F
	sampleIdx := (hdr >> 10) & 0x03

	// version 1 and layer 0 are reserved
	if version == 1 || layer == 0 || sampleIdx == 3 {
		return frameHeader{}, false
	}

	h := frameHeader{
		mpeg1: version == 3,
		layer: int(4 - layer),
	}
	row := 1
	if h.mpeg1 {
		row = 0
	}
	h.bitrate = bitrates[row][h.layer-1][bitrateIdx] * 1000
	return h, h.bitrate > 0
}

// id3v2Size returns the size of a leading ID3v2 tag including its header.
func id3v2Size(header []byte) int64 {
	if len(header) < 10 || string(header[:3]) != "ID3" {
		return 0
	}
	return 10 + (int64(header[6]&0x7F)<<21 | int64(header[7]&0x7F)<<14 | int64(header[8]&0x7F)<<7 | int64(header[9]&0x7F))
}

// ProbeDuration estimates the length of an MP3 stream in seconds from the
// bitrate of its first frame and the size of the audio payload. The estimate
// is exact for constant bitrate files.
func ProbeDuration(r io.ReadSeeker, size int64) (float64, error) {
	header := make([]byte, 10)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	offset := id3v2Size(header)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}

	buf := make([]byte, probeWindow)
	n, err := io.ReadFull(bufio.NewReader(r), buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	buf = buf[:n]

	for i := 0; i+4 <= len(buf); i++ {
		if buf[i] != 0xFF {
			continue
		}
		h, ok := parseFrameHeader(binary.BigEndian.Uint32(buf[i:]))
		if !ok {
			continue
		}
		audio := size - offset - int64(i)
		return float64(audio*8) / float64(h.bitrate), nil
	}

	return 0, ErrNoMPEGFrame
}

func probeFile(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return ProbeDuration(f, stat.Size())
}
