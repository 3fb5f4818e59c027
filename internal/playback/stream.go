// Package playback renders a processed test signal to the audio device.
package playback

import (
	"encoding/binary"
	"io"
	"math"
)

// BytesPerFrame is the size of one interleaved stereo float32 frame.
const BytesPerFrame = 8

// Processor is the block interface of the plugin.
type Processor interface {
	Process(in, out [2][]float32)
}

// Source generates planar stereo input.
type Source interface {
	Fill(block [2][]float32)
}

// Stream pulls blocks from a Source through a Processor and encodes them as
// interleaved little-endian float32, the layout oto expects for
// FormatFloat32LE with two channels.
type Stream struct {
	src    Source
	proc   Processor
	in     [2][]float32
	out    [2][]float32
	remain int64 // frames left, negative for unlimited
}

// NewStream creates a stream of at most frames frames (negative means
// endless) processed in chunks of blockSize frames.
func NewStream(src Source, proc Processor, blockSize int, frames int64) *Stream {
	blockSize = max(blockSize, 1)

	return &Stream{
		src:    src,
		proc:   proc,
		in:     [2][]float32{make([]float32, blockSize), make([]float32, blockSize)},
		out:    [2][]float32{make([]float32, blockSize), make([]float32, blockSize)},
		remain: frames,
	}
}

// Read fills p with whole frames. It returns io.EOF once the frame budget
// is spent.
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / BytesPerFrame
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}

	if s.remain == 0 {
		return 0, io.EOF
	}

	if s.remain > 0 {
		frames = int(min(int64(frames), s.remain))
	}

	n := 0
	for done := 0; done < frames; {
		chunk := min(frames-done, len(s.in[0]))
		in := [2][]float32{s.in[0][:chunk], s.in[1][:chunk]}
		out := [2][]float32{s.out[0][:chunk], s.out[1][:chunk]}

		s.src.Fill(in)
		s.proc.Process(in, out)

		for i := range chunk {
			binary.LittleEndian.PutUint32(p[n:], math.Float32bits(out[0][i]))
			binary.LittleEndian.PutUint32(p[n+4:], math.Float32bits(out[1][i]))
			n += BytesPerFrame
		}

		done += chunk
	}

	if s.remain > 0 {
		s.remain -= int64(frames)
	}

	return n, nil
}
