package container

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func jpegChunk(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// riffSummary is a minimal parse of the written file, enough to prove the
// container is structurally sound.
type riffSummary struct {
	videoChunks int
	audioChunks int
	indexCount  int
	hasHdrl     bool
	audioBytes  int
}

func parseAVI(t *testing.T, data []byte) riffSummary {
	t.Helper()
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		t.Fatalf("not a RIFF AVI file: %q", data[:12])
	}
	declared := binary.LittleEndian.Uint32(data[4:8])
	if int(declared)+8 != len(data) {
		t.Fatalf("RIFF size %d does not match file size %d", declared+8, len(data))
	}

	var sum riffSummary
	pos := 12
	for pos+8 <= len(data) {
		fourcc := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8 : pos+8+size]

		switch fourcc {
		case "LIST":
			switch string(body[:4]) {
			case "hdrl":
				sum.hasHdrl = true
			case "movi":
				inner := 4
				for inner+8 <= len(body) {
					cc := string(body[inner : inner+4])
					csize := int(binary.LittleEndian.Uint32(body[inner+4 : inner+8]))
					switch cc {
					case "00dc":
						sum.videoChunks++
					case "01wb":
						sum.audioChunks++
						sum.audioBytes += csize
					default:
						t.Fatalf("unexpected movi chunk %q", cc)
					}
					inner += 8 + csize + csize%2
				}
			}
		case "idx1":
			sum.indexCount = size / 16
		}
		pos += 8 + size + size%2
	}
	return sum
}

func TestWriteAVI_VideoOnly(t *testing.T) {
	frames := [][]byte{
		jpegChunk(t, 32, 24, color.RGBA{R: 255, A: 255}),
		jpegChunk(t, 32, 24, color.RGBA{G: 255, A: 255}),
		jpegChunk(t, 32, 24, color.RGBA{B: 255, A: 255}),
	}

	var out bytes.Buffer
	err := WriteAVI(&out, Options{Width: 32, Height: 24, FPS: 30}, frames, nil)
	if err != nil {
		t.Fatalf("WriteAVI: %v", err)
	}

	sum := parseAVI(t, out.Bytes())
	if !sum.hasHdrl {
		t.Fatal("missing hdrl list")
	}
	if sum.videoChunks != 3 {
		t.Fatalf("video chunks = %d, want 3", sum.videoChunks)
	}
	if sum.audioChunks != 0 {
		t.Fatalf("audio chunks = %d, want 0", sum.audioChunks)
	}
	if sum.indexCount != 3 {
		t.Fatalf("index entries = %d, want 3", sum.indexCount)
	}
}

func TestWriteAVI_InterleavesAllAudio(t *testing.T) {
	opts := Options{
		Width: 16, Height: 16, FPS: 30,
		SampleRate: 44100, Channels: 2, BytesPerSample: 2,
	}
	frames := make([][]byte, 30)
	for i := range frames {
		frames[i] = jpegChunk(t, 16, 16, color.RGBA{R: uint8(i * 8), A: 255})
	}
	// One second of PCM for one second of frames.
	pcm := make([]byte, opts.SampleRate*opts.Channels*opts.BytesPerSample)

	var out bytes.Buffer
	if err := WriteAVI(&out, opts, frames, pcm); err != nil {
		t.Fatalf("WriteAVI: %v", err)
	}

	sum := parseAVI(t, out.Bytes())
	if sum.videoChunks != 30 {
		t.Fatalf("video chunks = %d, want 30", sum.videoChunks)
	}
	if sum.audioChunks == 0 {
		t.Fatal("expected interleaved audio chunks")
	}
	if sum.audioBytes != len(pcm) {
		t.Fatalf("audio bytes in container = %d, want all %d", sum.audioBytes, len(pcm))
	}
	if sum.indexCount != sum.videoChunks+sum.audioChunks {
		t.Fatalf("index entries = %d, want %d", sum.indexCount, sum.videoChunks+sum.audioChunks)
	}
}

func TestWriteAVI_RejectsBadInput(t *testing.T) {
	frame := jpegChunk(t, 8, 8, color.RGBA{A: 255})

	if err := WriteAVI(&bytes.Buffer{}, Options{Width: 0, Height: 8, FPS: 30}, [][]byte{frame}, nil); err == nil {
		t.Fatal("expected error for zero width")
	}
	if err := WriteAVI(&bytes.Buffer{}, Options{Width: 8, Height: 8, FPS: 0}, [][]byte{frame}, nil); err == nil {
		t.Fatal("expected error for zero fps")
	}
	if err := WriteAVI(&bytes.Buffer{}, Options{Width: 8, Height: 8, FPS: 30}, nil, nil); err == nil {
		t.Fatal("expected error for empty recording")
	}
}
