// Package container assembles recorded chunks into an AVI file. The video
// stream is MJPEG (one JPEG per chunk, exactly what the recorder emits) and
// the optional audio stream is uncompressed PCM, interleaved per frame.
package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Options fixes the stream parameters of one output file.
type Options struct {
	Width  int
	Height int
	FPS    int

	// PCM track parameters; ignored when no audio is written.
	SampleRate     int
	Channels       int
	BytesPerSample int
}

const (
	avifHasIndex   = 0x00000010
	aviifKeyframe  = 0x00000010
	defaultQuality = 0xFFFFFFFF
)

// WriteAVI writes a complete AVI container. frames is the ordered list of
// JPEG-encoded chunks from one recording session; pcm may be nil for a silent
// file.
func WriteAVI(w io.Writer, opts Options, frames [][]byte, pcm []byte) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", opts.FPS)
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames to write")
	}

	hasAudio := len(pcm) > 0
	blockAlign := opts.Channels * opts.BytesPerSample
	if hasAudio && blockAlign <= 0 {
		return fmt.Errorf("invalid pcm parameters")
	}

	movi, index := buildMovi(opts, frames, pcm, blockAlign)
	hdrl := buildHdrl(opts, frames, pcm, hasAudio, blockAlign)
	idx1 := buildIdx1(index)

	riffSize := 4 + // "AVI "
		8 + len(hdrl) +
		8 + len(movi) +
		8 + len(idx1)

	var b builder
	b.fourcc("RIFF")
	b.u32(uint32(riffSize))
	b.fourcc("AVI ")
	b.chunk("LIST", hdrl)
	b.chunk("LIST", movi)
	b.chunk("idx1", idx1)

	if b.err != nil {
		return b.err
	}
	_, err := w.Write(b.buf)
	return err
}

// indexEntry records one movi chunk for the idx1 table. Offsets are relative
// to the position of the "movi" fourcc.
type indexEntry struct {
	fourcc string
	offset uint32
	size   uint32
}

func buildMovi(opts Options, frames [][]byte, pcm []byte, blockAlign int) ([]byte, []indexEntry) {
	var b builder
	b.fourcc("movi")

	var index []indexEntry
	audioOffset := 0
	bytesPerSecond := opts.SampleRate * blockAlign

	appendChunk := func(fourcc string, data []byte) {
		index = append(index, indexEntry{
			fourcc: fourcc,
			offset: uint32(len(b.buf)),
			size:   uint32(len(data)),
		})
		b.chunk(fourcc, data)
	}

	for i, frame := range frames {
		appendChunk("00dc", frame)

		if len(pcm) == 0 {
			continue
		}
		// Keep the audio stream caught up with presentation time.
		target := (i + 1) * bytesPerSecond / opts.FPS
		target -= target % blockAlign
		if i == len(frames)-1 || target > len(pcm) {
			target = len(pcm)
		}
		if target > audioOffset {
			appendChunk("01wb", pcm[audioOffset:target])
			audioOffset = target
		}
	}

	return b.buf, index
}

func buildHdrl(opts Options, frames [][]byte, pcm []byte, hasAudio bool, blockAlign int) []byte {
	maxFrame := 0
	for _, f := range frames {
		if len(f) > maxFrame {
			maxFrame = len(f)
		}
	}

	streams := 1
	if hasAudio {
		streams = 2
	}

	var b builder
	b.fourcc("hdrl")

	// avih: main header
	var avih builder
	avih.u32(uint32(1e6 / opts.FPS)) // microseconds per frame
	avih.u32(uint32(maxFrame * opts.FPS))
	avih.u32(0) // padding granularity
	avih.u32(avifHasIndex)
	avih.u32(uint32(len(frames)))
	avih.u32(0) // initial frames
	avih.u32(uint32(streams))
	avih.u32(uint32(maxFrame))
	avih.u32(uint32(opts.Width))
	avih.u32(uint32(opts.Height))
	avih.u32(0)
	avih.u32(0)
	avih.u32(0)
	avih.u32(0)
	b.chunk("avih", avih.buf)

	// Video stream list
	var vstrh builder
	vstrh.fourcc("vids")
	vstrh.fourcc("MJPG")
	vstrh.u32(0) // flags
	vstrh.u16(0) // priority
	vstrh.u16(0) // language
	vstrh.u32(0) // initial frames
	vstrh.u32(1) // scale
	vstrh.u32(uint32(opts.FPS))
	vstrh.u32(0) // start
	vstrh.u32(uint32(len(frames)))
	vstrh.u32(uint32(maxFrame))
	vstrh.u32(defaultQuality)
	vstrh.u32(0) // sample size
	vstrh.u16(0)
	vstrh.u16(0)
	vstrh.u16(uint16(opts.Width))
	vstrh.u16(uint16(opts.Height))

	var vstrf builder // BITMAPINFOHEADER
	vstrf.u32(40)
	vstrf.u32(uint32(opts.Width))
	vstrf.u32(uint32(opts.Height))
	vstrf.u16(1)  // planes
	vstrf.u16(24) // bit count
	vstrf.fourcc("MJPG")
	vstrf.u32(uint32(opts.Width * opts.Height * 3))
	vstrf.u32(0)
	vstrf.u32(0)
	vstrf.u32(0)
	vstrf.u32(0)

	var vlist builder
	vlist.fourcc("strl")
	vlist.chunk("strh", vstrh.buf)
	vlist.chunk("strf", vstrf.buf)
	b.chunk("LIST", vlist.buf)

	if hasAudio {
		bytesPerSecond := opts.SampleRate * blockAlign
		totalSamples := len(pcm) / blockAlign

		var astrh builder
		astrh.fourcc("auds")
		astrh.u32(0) // handler
		astrh.u32(0) // flags
		astrh.u16(0)
		astrh.u16(0)
		astrh.u32(0) // initial frames
		astrh.u32(uint32(blockAlign))
		astrh.u32(uint32(bytesPerSecond))
		astrh.u32(0) // start
		astrh.u32(uint32(totalSamples))
		astrh.u32(uint32(bytesPerSecond)) // suggested buffer size
		astrh.u32(defaultQuality)
		astrh.u32(uint32(blockAlign))
		astrh.u16(0)
		astrh.u16(0)
		astrh.u16(0)
		astrh.u16(0)

		var astrf builder // PCMWAVEFORMAT
		astrf.u16(1) // WAVE_FORMAT_PCM
		astrf.u16(uint16(opts.Channels))
		astrf.u32(uint32(opts.SampleRate))
		astrf.u32(uint32(bytesPerSecond))
		astrf.u16(uint16(blockAlign))
		astrf.u16(uint16(opts.BytesPerSample * 8))

		var alist builder
		alist.fourcc("strl")
		alist.chunk("strh", astrh.buf)
		alist.chunk("strf", astrf.buf)
		b.chunk("LIST", alist.buf)
	}

	return b.buf
}

func buildIdx1(index []indexEntry) []byte {
	var b builder
	for _, e := range index {
		b.fourcc(e.fourcc)
		b.u32(aviifKeyframe)
		b.u32(e.offset)
		b.u32(e.size)
	}
	return b.buf
}

// builder accumulates little-endian RIFF data. Chunks pad to even length per
// the RIFF rules.
type builder struct {
	buf []byte
	err error
}

func (b *builder) u16(v uint16) {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
}

func (b *builder) u32(v uint32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

func (b *builder) fourcc(s string) {
	if len(s) != 4 {
		b.err = fmt.Errorf("invalid fourcc %q", s)
		return
	}
	b.buf = append(b.buf, s...)
}

func (b *builder) chunk(fourcc string, data []byte) {
	b.fourcc(fourcc)
	b.u32(uint32(len(data)))
	b.buf = append(b.buf, data...)
	if len(data)%2 == 1 {
		b.buf = append(b.buf, 0)
	}
}
