package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"nmctl/internal/nm"
)

func ethernetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ethernet",
		Short: "Connect to and forget wired endpoints",
	}
	cmd.AddCommand(ethernetConnectCmd())
	cmd.AddCommand(ethernetForgetCmd())
	return cmd
}

func ethernetConnectCmd() *cobra.Command {
	var autoconnect bool
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Activate a wired connection on the first available Ethernet device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bus, conn, err := dialBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultOpTimeout)
			defer cancel()

			orch := nm.NewOrchestrator(bus)
			if err := orch.ConnectEthernet(ctx, nm.Options{Autoconnect: autoconnect}); err != nil {
				return err
			}
			fmt.Println("ethernet connected")
			return nil
		},
	}
	cmd.Flags().BoolVar(&autoconnect, "autoconnect", true, "Mark the profile for autoconnect")
	return cmd
}

func ethernetForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <interface>",
		Short: "Disconnect and delete the saved profile for a wired interface",
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
			if err := orch.Forget(ctx, nm.ForgetEthernet, args[0]); err != nil {
				return err
			}
			fmt.Printf("forgot %s\n", args[0])
			return nil
		},
	}
}
