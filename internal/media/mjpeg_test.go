package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"
)

func encodeFrame(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

func TestMJPEGSplitter_SplitsConcatenatedFrames(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(encodeFrame(t, color.RGBA{R: 250, A: 255}))
	stream.Write(encodeFrame(t, color.RGBA{G: 250, A: 255}))
	stream.Write(encodeFrame(t, color.RGBA{B: 250, A: 255}))

	split := newMJPEGSplitter(&stream)

	var frames []image.Image
	for {
		img, err := split.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next returned error: %v", err)
		}
		frames = append(frames, img)
	}

	if len(frames) != 3 {
		t.Fatalf("split %d frames, want 3", len(frames))
	}

	r, _, _, _ := frames[0].At(8, 8).RGBA()
	if r < 0xd000 {
		t.Fatalf("first frame not red-dominant: r=%d", r)
	}
	_, g, _, _ := frames[1].At(8, 8).RGBA()
	if g < 0xd000 {
		t.Fatalf("second frame not green-dominant: g=%d", g)
	}
}

func TestMJPEGSplitter_TruncatedFrame(t *testing.T) {
	frame := encodeFrame(t, color.RGBA{R: 100, A: 255})
	split := newMJPEGSplitter(bytes.NewReader(frame[:len(frame)-2]))

	if _, err := split.Next(); err != io.ErrUnexpectedEOF {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF for truncated stream", err)
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{in: "30/1", want: 30},
		{in: "30000/1001", want: 30000.0 / 1001.0},
		{in: "25", want: 25},
		{in: "", want: 0},
		{in: "x/1", want: 0},
		{in: "1/0", want: 0},
	}
	for _, tc := range tests {
		if got := parseFrameRate(tc.in); got != tc.want {
			t.Fatalf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
