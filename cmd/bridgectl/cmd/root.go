package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridpoint-systems/sensor-bridge/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "Sensor bridge operator CLI",
	Long: `bridgectl is the operator command-line interface for the sensor bridge.

Manage the tenants the bridge fans webhook traffic out to, and inspect
or drain the dead letter queue of payloads that could not be processed.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		os.Exit(1)
	}
}
