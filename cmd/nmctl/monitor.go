package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"nmctl/internal/nm"
)

func monitorCmd() *cobra.Command {
	var topology, networks bool
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Stream device topology and Wi-Fi network changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !topology && !networks {
				topology, networks = true, true
			}

			bus, conn, err := dialBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			shutdown := make(chan struct{})
			go func() {
				<-ctx.Done()
				close(shutdown)
			}()

			mon := nm.NewMonitor(bus)
			var wg sync.WaitGroup

			if topology {
				wg.Add(1)
				go func() {
					defer wg.Done()
					mon.MonitorDeviceChanges(ctx, shutdown, func() {
						fmt.Println("topology changed")
					})
				}()
			}
			if networks {
				disc := nm.NewDiscovery(bus)
				wifiDevices, err := disc.ListWireless(ctx)
				if err != nil {
					return err
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					mon.MonitorNetworkChanges(ctx, shutdown, wifiDevices, func() {
						fmt.Println("network list changed")
					})
				}()
			}

			<-ctx.Done()
			wg.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&topology, "topology", false, "Stream only device topology changes")
	cmd.Flags().BoolVar(&networks, "networks", false, "Stream only Wi-Fi network changes")
	return cmd
}
