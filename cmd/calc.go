package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evdemand/config"
	"github.com/kilianp07/evdemand/core/energy"
	"github.com/kilianp07/evdemand/core/model"
	"github.com/kilianp07/evdemand/core/vehicle"
)

type calcOptions struct {
	initial   int
	target    int
	capacity  int
	loss      int
	delivered float64
	vehicleID int
}

var calcOpts calcOptions

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Print the remaining charging demand in Wh",
	Args:  cobra.NoArgs,
	RunE:  runCalc,
}

func init() {
	f := calcCmd.Flags()
	f.IntVar(&calcOpts.initial, "initial", 0, "initial state of charge in percent")
	f.IntVar(&calcOpts.target, "target", 100, "target state of charge in percent")
	f.IntVar(&calcOpts.capacity, "capacity", model.DefaultBatteryCapacityWh, "battery capacity in Wh")
	f.IntVar(&calcOpts.loss, "loss", model.DefaultChargeLossPercent, "charge loss in percent")
	f.Float64Var(&calcOpts.delivered, "delivered", 0, "energy already delivered in kWh")
	f.IntVar(&calcOpts.vehicleID, "vehicle", 0, "take capacity and loss from this configured vehicle")
	rootCmd.AddCommand(calcCmd)
}

func runCalc(cmd *cobra.Command, _ []string) error {
	v := model.Vehicle{BatteryCapacityWh: calcOpts.capacity, ChargeLossPercent: calcOpts.loss}
	if cmd.Flags().Changed("vehicle") {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		var ok bool
		v, ok = vehicle.NewMemoryRegistry(cfg.Vehicles...).Vehicle(calcOpts.vehicleID)
		if !ok {
			return fmt.Errorf("vehicle %d not configured", calcOpts.vehicleID)
		}
	}
	demand := energy.ComputeRemainingDemandWh(calcOpts.initial, calcOpts.target, calcOpts.delivered,
		v.BatteryCapacityWh, v.ChargeLossPercent)
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d\n", demand)
	return err
}
