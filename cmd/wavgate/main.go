// Command wavgate runs the enhancement pipeline over WAV files on disk.
package main

import (
	"github.com/alecthomas/kong"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Enhance EnhanceCmd       `cmd:"" help:"Gate background noise in WAV files."`
	Inspect InspectCmd       `cmd:"" help:"Print format and noise profile of WAV files."`
	Version kong.VersionFlag `short:"V" help:"Show version information."`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("wavgate"),
		kong.Description("Adaptive noise gate for PCM WAV recordings"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
	)

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
