package main

import "fmt"

// ParamsCmd prints the normalized-to-display mapping of every parameter.
type ParamsCmd struct {
	ProcessorFlags

	Steps int `short:"n" default:"5" help:"Normalized sample points per parameter (>= 2)"`
}

// Run implements the params command.
func (cmd *ParamsCmd) Run(g *Globals) error {
	if cmd.Steps < 2 {
		return fmt.Errorf("steps must be >= 2: %d", cmd.Steps)
	}

	c, _, err := cmd.build(g.Log)
	if err != nil {
		return err
	}

	PrintTitle(c.Info().String())

	for i := range c.ParameterCount() {
		fmt.Println(HeaderStyle.Render(c.ParameterName(i)))
		PrintKV("current", c.ParameterText(i))

		for s := range cmd.Steps {
			v := float32(s) / float32(cmd.Steps-1)
			c.SetParameter(i, v)
			fmt.Println(Cell(KeyStyle, 10, fmt.Sprintf("%.3f", v)) +
				Cell(ValueStyle, 14, fmt.Sprintf("%.6g", c.Parameter(i))) +
				ValueStyle.Render(c.ParameterText(i)))
		}

		fmt.Println()
	}

	return nil
}
