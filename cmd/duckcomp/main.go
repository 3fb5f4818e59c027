// Command duckcomp inspects and auditions the Duck Comp processor outside a
// plugin host.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version information"`
	LogLevel string           `help:"Log level (${enum})" default:"warn" enum:"debug,info,warn,error"`

	Params  ParamsCmd  `cmd:"" help:"Show how normalized host values map to parameter values"`
	Curve   CurveCmd   `cmd:"" help:"Print the static gain curve over gain reduction"`
	Measure MeasureCmd `cmd:"" help:"Run a test tone through the processor and report gain and THD"`
	Play    PlayCmd    `cmd:"" help:"Play a pulsing test tone through the processor"`
}

// Globals are handed to every command's Run method.
type Globals struct {
	Log *logrus.Logger
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("duckcomp"),
		kong.Description("Ducking compressor inspection and playback tool"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{
			"version": version,
		},
	)

	logger, err := newLogger(cli.LogLevel)
	if err != nil {
		PrintError(err.Error())
		os.Exit(1)
	}

	err = ctx.Run(&Globals{Log: logger})
	if err != nil {
		PrintError(err.Error())
		os.Exit(1)
	}
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return logger, nil
}
