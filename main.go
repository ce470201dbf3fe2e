package main

import (
	"fmt"
	"os"

	"github.com/orcasound/orcaprep/cmd"
	"github.com/orcasound/orcaprep/internal/buildinfo"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/logger"
)

// Set at build time: -ldflags "-X main.version=v1.0.0 -X main.buildDate=2026-01-01"
var (
	version   string
	buildDate string
)

func main() {
	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings, buildinfo.NewContext(version, buildDate))

	err := rootCmd.Execute()
	_ = logger.Global().Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
