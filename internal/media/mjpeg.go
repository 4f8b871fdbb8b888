package media

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// mjpegSplitter cuts a concatenated JPEG stream into individual frames. The
// JPEG entropy coder byte-stuffs 0xFF, so scanning for the SOI/EOI marker
// pairs is unambiguous on ffmpeg's image2pipe output.
type mjpegSplitter struct {
	r   *bufio.Reader
	buf bytes.Buffer
}

func newMJPEGSplitter(r io.Reader) *mjpegSplitter {
	return &mjpegSplitter{r: bufio.NewReaderSize(r, 1<<16)}
}

// Next decodes the next complete frame, or io.EOF when the stream ends.
func (m *mjpegSplitter) Next() (image.Image, error) {
	frame, err := m.nextFrameBytes()
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode mjpeg frame: %w", err)
	}
	return img, nil
}

func (m *mjpegSplitter) nextFrameBytes() ([]byte, error) {
	if err := m.skipToSOI(); err != nil {
		return nil, err
	}

	m.buf.Reset()
	m.buf.WriteByte(0xFF)
	m.buf.WriteByte(0xD8)

	prev := byte(0)
	for {
		b, err := m.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		m.buf.WriteByte(b)
		if prev == 0xFF && b == 0xD9 {
			out := make([]byte, m.buf.Len())
			copy(out, m.buf.Bytes())
			return out, nil
		}
		prev = b
	}
}

func (m *mjpegSplitter) skipToSOI() error {
	prev := byte(0)
	for {
		b, err := m.r.ReadByte()
		if err != nil {
			return err
		}
		if prev == 0xFF && b == 0xD8 {
			return nil
		}
		prev = b
	}
}
