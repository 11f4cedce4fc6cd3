package nm

import (
	"strings"
)

const wgServiceType = "org.freedesktop.NetworkManager.wireguard"
const wgInterfaceNameLimit = 15 // IFNAMSIZ - 1

// WireGuardPeer is one peer entry of a WireGuard profile (spec §3.2,
// §4.1, §6.2).
type WireGuardPeer struct {
	PublicKey            string
	Endpoint             string // host:port
	AllowedIPs           []string
	PresharedKey         string
	PersistentKeepalive  uint32
}

// WireGuardParams is the full input to BuildWireGuard (spec §4.1
// "WireGuard").
type WireGuardParams struct {
	Name       string
	PrivateKey string
	Address    string // CIDR
	DNS        []string
	MTU        uint32
	Peers      []WireGuardPeer
}

// slugifyInterfaceName keeps only alphanumerics and dashes and trims to
// the interface name length budget, deriving "wg-<slug>" deterministically
// from the profile name (spec §4.1: "Deterministically derives interface
// name wg-<slug-of-name>").
func slugifyInterfaceName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		case r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := b.String()
	const prefix = "wg-"
	budget := wgInterfaceNameLimit - len(prefix)
	if len(slug) > budget {
		slug = slug[:budget]
	}
	return prefix + slug
}

// BuildWireGuard validates the private key, address, gateways, and every
// peer's public key and allowed-IPs, then constructs the wireguard/ipv4/
// ipv6 settings sections (spec §4.1 "WireGuard", §6.2).
func BuildWireGuard(p WireGuardParams, opts Options) (SettingsMap, error) {
	if p.Name == "" {
		return nil, invalid("name", "name must not be empty")
	}
	if err := validateWGKey("private_key", p.PrivateKey); err != nil {
		return nil, err
	}
	if _, _, err := validateCIDR("address", p.Address); err != nil {
		return nil, err
	}
	if len(p.Peers) == 0 {
		return nil, invalid("peers", "at least one peer is required")
	}

	peerDicts := make([]map[string]any, 0, len(p.Peers))
	for i, peer := range p.Peers {
		if err := validateWGKey("peers.public_key", peer.PublicKey); err != nil {
			return nil, err
		}
		if peer.Endpoint != "" {
			if _, _, err := validateGateway("peers.endpoint", peer.Endpoint); err != nil {
				return nil, err
			}
		}
		if len(peer.AllowedIPs) == 0 {
			return nil, invalid("peers.allowed_ips", "each peer must have at least one allowed-ips entry")
		}
		for _, a := range peer.AllowedIPs {
			if _, _, err := validateCIDR("peers.allowed_ips", a); err != nil {
				return nil, err
			}
		}
		if peer.PresharedKey != "" {
			if err := validateWGKey("peers.preshared_key", peer.PresharedKey); err != nil {
				return nil, err
			}
		}

		d := map[string]any{
			"public-key":  peer.PublicKey,
			"allowed-ips": append([]string(nil), peer.AllowedIPs...),
		}
		if peer.Endpoint != "" {
			d["endpoint"] = peer.Endpoint
		}
		if peer.PresharedKey != "" {
			d["preshared-key"] = peer.PresharedKey
		}
		if peer.PersistentKeepalive != 0 {
			d["persistent-keepalive"] = peer.PersistentKeepalive
		}
		peerDicts = append(peerDicts, d)
		_ = i
	}

	iface := slugifyInterfaceName(p.Name)

	m := newSettings()
	writeConnectionCore(m, "wireguard", p.Name, DeterministicUUID(p.Name), opts)
	conn := m.section("connection")
	conn["interface-name"] = iface

	wg := m.section("wireguard")
	wg["service-type"] = wgServiceType
	wg["private-key"] = p.PrivateKey
	wg["peers"] = peerDicts
	if p.MTU != 0 {
		wg["mtu"] = p.MTU
	}

	ipv4 := m.section("ipv4")
	ipv4["method"] = "manual"
	ipv4["address-data"] = []map[string]any{addressData(p.Address)}
	if len(p.DNS) > 0 {
		ipv4["dns"] = append([]string(nil), p.DNS...)
	}
	if p.MTU != 0 {
		ipv4["mtu"] = p.MTU
	}

	ipv6 := m.section("ipv6")
	ipv6["method"] = "ignore"

	return m, nil
}

func addressData(cidr string) map[string]any {
	host, prefix, _ := validateCIDR("address", cidr)
	return map[string]any{"address": host, "prefix": uint32(prefix)}
}
