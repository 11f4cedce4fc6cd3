package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"nmctl/internal/nm"
)

func bluetoothCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bluetooth",
		Short: "Connect to and forget Bluetooth PAN endpoints",
	}
	cmd.AddCommand(bluetoothConnectCmd())
	cmd.AddCommand(bluetoothForgetCmd())
	cmd.AddCommand(bluetoothInfoCmd())
	return cmd
}

func bluetoothConnectCmd() *cobra.Command {
	var role string
	var autoconnect bool
	cmd := &cobra.Command{
		Use:   "connect <name> <bdaddr>",
		Short: "Connect to a paired Bluetooth device by name and address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bus, conn, err := dialBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultOpTimeout)
			defer cancel()

			orch := nm.NewOrchestrator(bus)
			err = orch.ConnectBluetooth(ctx, args[0], args[1], role, nm.Options{Autoconnect: autoconnect})
			if err != nil {
				return err
			}
			fmt.Printf("connected to %s (%s)\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "panu", "Bluetooth role (pan, panu, or dun)")
	cmd.Flags().BoolVar(&autoconnect, "autoconnect", false, "Mark the profile for autoconnect")
	return cmd
}

func bluetoothForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <name>",
		Short: "Disconnect and delete the saved profile for a Bluetooth device",
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
			if err := orch.Forget(ctx, nm.ForgetBluetooth, args[0]); err != nil {
				return err
			}
			fmt.Printf("forgot %s\n", args[0])
			return nil
		},
	}
}

// bluetoothInfoCmd exposes the BlueZ display-name lookup (supplemented
// feature, recovered from the original's populate_bluez_info):
// NetworkManager's own Bluetooth device object carries only the BDADDR.
func bluetoothInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <bdaddr>",
		Short: "Look up a paired Bluetooth device's name and alias via BlueZ",
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
			name, alias, err := orch.BluetoothInfo(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("name:  %s\n", name)
			fmt.Printf("alias: %s\n", alias)
			return nil
		},
	}
}
