package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cwbudde/algo-duck/dsp/core"
	"github.com/cwbudde/algo-duck/internal/playback"
	"github.com/cwbudde/algo-duck/internal/preset"
	"github.com/sirupsen/logrus"
)

// PlayCmd auditions the processor on the sound card.
type PlayCmd struct {
	ProcessorFlags

	Watch    bool          `short:"w" help:"Re-apply the preset whenever the file changes"`
	Duration time.Duration `short:"d" default:"10s" help:"Playback length (0 plays until interrupted)"`
	Freq     float64       `default:"220" help:"Test tone frequency in Hz"`
	Loud     float64       `default:"0.8" help:"Burst amplitude (linear)"`
	Quiet    float64       `default:"0.1" help:"Amplitude between bursts (linear)"`
	Buffer   time.Duration `default:"50ms" help:"Device buffer length"`
}

// Run implements the play command.
func (cmd *PlayCmd) Run(g *Globals) error {
	if cmd.Watch && cmd.Preset == "" {
		return errors.New("--watch needs --preset")
	}

	c, _, err := cmd.build(g.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cmd.Watch {
		go func() {
			err := preset.Watch(ctx, cmd.Preset, g.Log, func(p preset.Preset) {
				skipped, err := p.Apply(c)
				if err != nil {
					g.Log.WithField("error", err).Warn("Preset not applied")
					return
				}

				if len(skipped) > 0 {
					g.Log.WithField("skipped", skipped).Warn("Preset parameters not exposed by this strategy")
				}
			})
			if err != nil {
				g.Log.WithField("error", err).Error("Preset watch stopped")
			}
		}()
	}

	frames := int64(-1)
	if cmd.Duration > 0 {
		frames = int64(cmd.Duration.Seconds() * c.SampleRate())
	}

	src := &playback.ToneBursts{
		Freq:       cmd.Freq,
		SampleRate: c.SampleRate(),
		Loud:       cmd.Loud,
		Quiet:      cmd.Quiet,
		Burst:      0.5,
		Period:     1.5,
	}

	player, err := playback.NewPlayer(int(c.SampleRate()), cmd.Buffer)
	if err != nil {
		return err
	}

	g.Log.WithFields(logrus.Fields{
		"function":    "Play",
		"sample_rate": c.SampleRate(),
		"duration":    cmd.Duration,
	}).Info("Playback started")

	PrintTitle(fmt.Sprintf("Playing %s through %s", cmd.Duration, c.Info().Name))

	err = player.Play(ctx, playback.NewStream(src, c, c.BlockSize(), frames))
	if err != nil && ctx.Err() == nil {
		return err
	}

	m := c.Ducker().Metrics()
	PrintKV("minimum gain", fmt.Sprintf("%.2f dB", core.GainToDB(m.MinGain)))

	return nil
}
