// talysrun - command-line driver for TALYS nuclear reaction calculations
package main

import (
	"os"

	"github.com/talysviz/talysrun/internal/cli"
	"github.com/talysviz/talysrun/internal/version"
)

// Version information, overridden with -ldflags "-X main.Version=..."
var (
	Version   = "v0.3.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
