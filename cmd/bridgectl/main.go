package main

import (
	"os"

	"github.com/gridpoint-systems/sensor-bridge/cmd/bridgectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
