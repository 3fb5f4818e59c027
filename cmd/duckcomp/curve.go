package main

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-duck/dsp/core"
)

// CurveCmd prints the static gain curve of the selected processor.
type CurveCmd struct {
	ProcessorFlags

	Max   float64 `default:"2" help:"Largest gain reduction state to evaluate"`
	Steps int     `short:"n" default:"21" help:"Number of points (>= 2)"`
	Bar   int     `default:"40" help:"Width of the gain bar in characters (0 disables)"`
}

// Run implements the curve command.
func (cmd *CurveCmd) Run(g *Globals) error {
	if cmd.Steps < 2 {
		return fmt.Errorf("steps must be >= 2: %d", cmd.Steps)
	}

	if cmd.Max <= 0 {
		return fmt.Errorf("max must be > 0: %f", cmd.Max)
	}

	c, _, err := cmd.build(g.Log)
	if err != nil {
		return err
	}

	d := c.Ducker()

	PrintTitle(fmt.Sprintf("Gain curve (%s)", d.Strategy()))
	fmt.Println(Cell(HeaderStyle, 10, "Q") + Cell(HeaderStyle, 12, "gain") + Cell(HeaderStyle, 12, "dB"))

	for i := range cmd.Steps {
		q := cmd.Max * float64(i) / float64(cmd.Steps-1)
		gain := d.GainForReduction(q)

		bar := ""
		if cmd.Bar > 0 {
			bar = strings.Repeat("█", int(core.Clamp(gain, 0, 1)*float64(cmd.Bar)+0.5))
		}

		fmt.Println(Cell(KeyStyle, 10, fmt.Sprintf("%.3f", q)) +
			Cell(ValueStyle, 12, fmt.Sprintf("%.4f", gain)) +
			Cell(ValueStyle, 12, fmt.Sprintf("%.2f", core.GainToDB(gain))) +
			KeyStyle.Render(bar))
	}

	return nil
}
