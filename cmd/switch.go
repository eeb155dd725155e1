package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evdemand/config"
	"github.com/kilianp07/evdemand/infra/logger"
	"github.com/kilianp07/evdemand/infra/mqtt"
)

var switchCmd = &cobra.Command{
	Use:   "switch <appliance-id> on|off",
	Short: "Send a manual switch command to an appliance",
	Args:  cobra.ExactArgs(2),
	RunE:  runSwitch,
}

func init() {
	rootCmd.AddCommand(switchCmd)
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func runSwitch(cmd *cobra.Command, args []string) error {
	on, err := parseOnOff(args[1])
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mqttCfg := cfg.MQTT
	suffix := time.Now().UnixNano()
	if mqttCfg.ClientID != "" {
		mqttCfg.ClientID = fmt.Sprintf("%s-%d", mqttCfg.ClientID, suffix)
	} else {
		mqttCfg.ClientID = fmt.Sprintf("switch-%d", suffix)
	}
	client, err := mqtt.NewPahoClient(mqttCfg, nil, nil, logger.New("switch-command"))
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()
	return client.Switch(args[0], on)
}
