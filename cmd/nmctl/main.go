// Command nmctl is a thin operator/debug entry point over the connection
// lifecycle core: enough to connect, forget, and monitor Wi-Fi, wired,
// Bluetooth, and WireGuard endpoints from a terminal, exercising the
// orchestrator end to end without a graphical front-end.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"nmctl/internal/logging"
)

func main() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	var debug bool
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "nmctl",
		Short:         "Connect, forget, and monitor network endpoints over NetworkManager",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(wifiCmd())
	root.AddCommand(ethernetCmd())
	root.AddCommand(bluetoothCmd())
	root.AddCommand(wireguardCmd())
	root.AddCommand(monitorCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
