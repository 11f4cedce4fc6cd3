package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"nmctl/internal/nm"
)

func wireguardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wg",
		Short: "Connect to, forget, and generate keys for WireGuard endpoints",
	}
	cmd.AddCommand(wireguardConnectCmd())
	cmd.AddCommand(wireguardForgetCmd())
	cmd.AddCommand(wireguardKeygenCmd())
	cmd.AddCommand(wireguardListCmd())
	return cmd
}

func wireguardConnectCmd() *cobra.Command {
	var privateKey, address, dns, mtu string
	var peerKey, peerEndpoint, peerAllowed, peerPSK string
	cmd := &cobra.Command{
		Use:   "connect <name>",
		Short: "Connect to a WireGuard profile, reusing a saved profile when possible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if peerKey == "" || peerAllowed == "" {
				return fmt.Errorf("--peer-key and --peer-allowed-ips are required")
			}
			params := nm.WireGuardParams{
				Name:       args[0],
				PrivateKey: privateKey,
				Address:    address,
				Peers: []nm.WireGuardPeer{{
					PublicKey:    peerKey,
					Endpoint:     peerEndpoint,
					AllowedIPs:   strings.Split(peerAllowed, ","),
					PresharedKey: peerPSK,
				}},
			}
			if dns != "" {
				params.DNS = strings.Split(dns, ",")
			}
			if mtu != "" {
				v, err := strconv.ParseUint(mtu, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid --mtu: %w", err)
				}
				params.MTU = uint32(v)
			}

			bus, conn, err := dialBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultOpTimeout)
			defer cancel()

			orch := nm.NewOrchestrator(bus)
			if err := orch.ConnectWireGuard(ctx, params, nm.Options{}); err != nil {
				return err
			}
			fmt.Printf("connected to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&privateKey, "private-key", "", "Local private key")
	cmd.Flags().StringVar(&address, "address", "", "Local tunnel address in CIDR form")
	cmd.Flags().StringVar(&dns, "dns", "", "Comma-separated DNS servers")
	cmd.Flags().StringVar(&mtu, "mtu", "", "Tunnel MTU")
	cmd.Flags().StringVar(&peerKey, "peer-key", "", "Peer public key")
	cmd.Flags().StringVar(&peerEndpoint, "peer-endpoint", "", "Peer endpoint host:port")
	cmd.Flags().StringVar(&peerAllowed, "peer-allowed-ips", "", "Comma-separated peer allowed-ips")
	cmd.Flags().StringVar(&peerPSK, "peer-preshared-key", "", "Peer preshared key")
	return cmd
}

func wireguardForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <name>",
		Short: "Disconnect and delete the saved profile for a WireGuard endpoint",
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
			if err := orch.Forget(ctx, nm.ForgetWireGuard, args[0]); err != nil {
				return err
			}
			fmt.Printf("forgot %s\n", args[0])
			return nil
		},
	}
}

func wireguardKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a WireGuard private key and print it with its public counterpart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := wgtypes.GeneratePrivateKey()
			if err != nil {
				return err
			}
			fmt.Printf("private: %s\n", key.String())
			fmt.Printf("public:  %s\n", key.PublicKey().String())
			return nil
		},
	}
}

// wireguardListCmd exposes a standalone VPN inventory view (supplemented
// feature, recovered from the original's list_vpn_connections/
// get_vpn_info), independent of any connect/forget call.
func wireguardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved WireGuard profiles and their current state",
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
			statuses, err := orch.ListWireGuard(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "inactive"
				if s.Active {
					state = s.State.String()
				}
				fmt.Printf("%-24s %-16s %s\n", s.Name, s.Interface, state)
			}
			return nil
		},
	}
}
