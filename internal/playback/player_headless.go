//go:build headless

package playback

import (
	"context"
	"io"
	"time"
)

// Player drains streams without an audio device.
type Player struct{}

// NewPlayer returns a draining player.
func NewPlayer(sampleRate int, bufferSize time.Duration) (*Player, error) {
	return &Player{}, nil
}

// Play reads r to the end, or until ctx is done.
func (p *Player) Play(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := r.Read(buf)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
