package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/kilianp07/evdemand/config"
	"github.com/kilianp07/evdemand/infra/logger"
	"github.com/kilianp07/evdemand/infra/mqtt"
	"github.com/kilianp07/evdemand/simulator"
)

type simulateOptions struct {
	ids         []string
	capacityKWh float64
	socPercent  float64
	rateKW      float64
	lossPercent float64
	interval    time.Duration
}

var simOpts simulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate wallboxes reporting SOC and metered energy",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringSliceVar(&simOpts.ids, "id", []string{"wallbox"}, "appliance ids to simulate")
	f.Float64Var(&simOpts.capacityKWh, "capacity", 50, "battery capacity kWh")
	f.Float64Var(&simOpts.socPercent, "soc", 20, "initial state of charge in percent")
	f.Float64Var(&simOpts.rateKW, "rate", 11, "charge rate kW")
	f.Float64Var(&simOpts.lossPercent, "loss", 10, "charge loss in percent")
	f.DurationVar(&simOpts.interval, "interval", 30*time.Second, "report interval")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mqttCfg := cfg.MQTT
	mqttCfg.ClientID = fmt.Sprintf("sim-%d", time.Now().UnixNano())
	mqttCfg.LWTTopic = ""
	opts, err := mqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return err
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer cli.Disconnect(250)

	logg := logger.New("simulator")
	var wg sync.WaitGroup
	for _, id := range simOpts.ids {
		b := &simulator.Battery{
			CapacityKWh:  simOpts.capacityKWh,
			Soc:          simOpts.socPercent / 100,
			ChargeRateKW: simOpts.rateKW,
			LossPercent:  simOpts.lossPercent,
		}
		c := simulator.NewCharger(id, b, simOpts.interval, cli, logg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				logg.Errorf("%s: %v", c.ID, err)
			}
		}()
	}
	wg.Wait()
	return nil
}
