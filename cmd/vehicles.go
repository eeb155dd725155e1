package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evdemand/config"
	"github.com/kilianp07/evdemand/core/vehicle"
)

var vehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "Vehicle related commands",
}

var vehiclesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured vehicles",
	RunE:  runVehiclesLs,
}

func init() {
	vehiclesCmd.AddCommand(vehiclesLsCmd)
	rootCmd.AddCommand(vehiclesCmd)
}

func runVehiclesLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, v := range vehicle.NewMemoryRegistry(cfg.Vehicles...).List() {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%dWh\t%d%%\n",
			v.ID, v.Name, v.BatteryCapacityWh, v.ChargeLossPercent); err != nil {
			return err
		}
	}
	return nil
}
