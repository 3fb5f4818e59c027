//go:build !headless

package playback

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player writes a stream to the default audio device.
type Player struct {
	ctx *oto.Context
}

// NewPlayer opens the audio device for stereo float32 output. Only one
// Player may exist per process.
func NewPlayer(sampleRate int, bufferSize time.Duration) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	<-ready

	return &Player{ctx: ctx}, nil
}

// Play plays r until it returns io.EOF or ctx is done.
func (p *Player) Play(ctx context.Context, r io.Reader) error {
	player := p.ctx.NewPlayer(r)
	defer player.Close()

	player.Play()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-tick.C:
		}
	}

	return nil
}
