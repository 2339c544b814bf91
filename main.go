// Package main is the entry point for the montage application.
package main

import (
	"github.com/montage-cli/montage/cmd"
	"github.com/montage-cli/montage/config"
	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/waveform"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// Prune expired waveform envelopes in the background.
	waveform.CollectGarbage()

	cmd.Execute()
}
