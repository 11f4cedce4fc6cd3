package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nmctl/internal/nm"
)

const defaultOpTimeout = 60 * time.Second

func wifiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wifi",
		Short: "Connect, forget, and list Wi-Fi networks",
	}
	cmd.AddCommand(wifiConnectCmd())
	cmd.AddCommand(wifiForgetCmd())
	cmd.AddCommand(wifiListCmd())
	cmd.AddCommand(wifiRadioCmd())
	return cmd
}

func wifiConnectCmd() *cobra.Command {
	var psk string
	var open bool
	var autoconnect bool
	var hidden bool

	cmd := &cobra.Command{
		Use:   "connect <ssid>",
		Short: "Connect to a Wi-Fi network by SSID, reusing a saved profile when possible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cred nm.Credential = nm.Open{}
			if !open && psk != "" {
				cred = nm.WpaPsk{PSK: psk}
			}

			bus, conn, err := dialBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultOpTimeout)
			defer cancel()

			orch := nm.NewOrchestrator(bus)
			err = orch.ConnectWifi(ctx, []byte(args[0]), cred,
				nm.Options{Autoconnect: autoconnect},
				nm.WifiOptions{Hidden: hidden})
			if err != nil {
				return err
			}
			fmt.Printf("connected to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&psk, "psk", "", "WPA-personal passphrase")
	cmd.Flags().BoolVar(&open, "open", false, "Treat the network as unsecured")
	cmd.Flags().BoolVar(&autoconnect, "autoconnect", true, "Mark the profile for autoconnect")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Network does not broadcast its SSID")
	return cmd
}

func wifiForgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forget <ssid>",
		Short: "Disconnect and delete the saved profile for an SSID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bus, conn, err := dialBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultOpTimeout)
			defer cancel()

			orch := nm.NewOrchestrator(bus)
			if err := orch.Forget(ctx, nm.ForgetWifi, args[0]); err != nil {
				return err
			}
			fmt.Printf("forgot %s\n", args[0])
			return nil
		},
	}
	return cmd
}

func wifiListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List visible Wi-Fi networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bus, conn, err := dialBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultOpTimeout)
			defer cancel()

			disc := nm.NewDiscovery(bus)
			devices, err := disc.ListWireless(ctx)
			if err != nil {
				return err
			}
			scanner := nm.NewScanner(bus)
			scanner.ScanAllWifi(ctx, devices)
			networks, err := scanner.ListNetworks(ctx, devices)
			if err != nil {
				return err
			}
			for _, n := range networks {
				fmt.Printf("%-32s %4d MHz  %3d%%  secured=%v\n",
					nm.DecodeSSIDOrHidden(n.SSID), n.Frequency, n.Strength, n.Secured)
			}
			return nil
		},
	}
}

// wifiRadioCmd exposes the global Wi-Fi radio toggle (supplemented
// feature, recovered from the original's set_wifi_enabled/wifi_enabled).
func wifiRadioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "radio [on|off]",
		Short: "Show or change the global Wi-Fi radio state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bus, conn, err := dialBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultOpTimeout)
			defer cancel()

			orch := nm.NewOrchestrator(bus)
			if len(args) == 0 {
				enabled, err := orch.WifiRadioEnabled(ctx)
				if err != nil {
					return err
				}
				fmt.Println(radioState(enabled))
				return nil
			}

			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("invalid radio state %q, want on or off", args[0])
			}
			if err := orch.SetWifiRadio(ctx, enabled); err != nil {
				return err
			}
			fmt.Println(radioState(enabled))
			return nil
		},
	}
}

func radioState(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
