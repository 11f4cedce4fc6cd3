package nm

import (
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

// SettingsMap is the nested, typed settings dictionary the daemon
// consumes: section name -> field name -> typed value (spec §3.1, §6.2).
// Field values are wrapped in dbus.Variant at the point they cross the
// IPC boundary; the builder itself works with plain Go values so tests
// can assert on them without unwrapping variants.
type SettingsMap map[string]map[string]any

// settingsNamespace is the fixed namespace this core hashes connection
// names into for deterministic, idempotent UUIDs across restarts (spec
// §3.2: "generated deterministically (name-based namespace hash) for
// idempotence"). The value itself is arbitrary and stable forever.
var settingsNamespace = uuid.MustParse("8f14e45f-ceea-467e-bb0f-12a580306e9e")

// DeterministicUUID derives a stable UUID from a connection name so that
// rebuilding the same profile twice yields the same identity.
func DeterministicUUID(name string) string {
	return uuid.NewSHA1(settingsNamespace, []byte(name)).String()
}

// RandomUUID generates a fresh UUID for callers that do not need
// idempotence.
func RandomUUID() string {
	return uuid.NewString()
}

func newSettings() SettingsMap {
	return SettingsMap{}
}

func (m SettingsMap) section(name string) map[string]any {
	s, ok := m[name]
	if !ok {
		s = map[string]any{}
		m[name] = s
	}
	return s
}

// writeConnectionCore writes the connection/ipv4/ipv6 sections common to
// every kind (spec §4.1 "The common core").
func writeConnectionCore(m SettingsMap, connType, id, uuidStr string, opts Options) {
	conn := m.section("connection")
	conn["type"] = connType
	conn["id"] = id
	conn["uuid"] = uuidStr
	conn["autoconnect"] = opts.Autoconnect
	if opts.AutoconnectPriority != 0 {
		conn["autoconnect-priority"] = opts.AutoconnectPriority
	}
	if opts.AutoconnectRetries != 0 {
		conn["autoconnect-retries"] = opts.AutoconnectRetries
	}

	ipv4 := m.section("ipv4")
	ipv4["method"] = "auto"
	ipv6 := m.section("ipv6")
	ipv6["method"] = "auto"
}

// WifiOptions carries the optional Wi-Fi settings fields (spec §4.1).
type WifiOptions struct {
	Hidden bool
	Band   string // "a" or "bg"
	BSSID  string
}

// BuildWifi constructs the settings map for a Wi-Fi connection. Security
// variant is selected by the dynamic type of cred (spec §4.1 "Wi-Fi").
func BuildWifi(ssid []byte, cred Credential, opts Options, wifiOpts WifiOptions) (SettingsMap, error) {
	if len(ssid) == 0 {
		return nil, invalid("ssid", "ssid must not be empty")
	}

	id := DecodeSSIDOrHidden(ssid)
	m := newSettings()
	writeConnectionCore(m, "802-11-wireless", id, DeterministicUUID(id), opts)

	wifi := m.section("802-11-wireless")
	wifi["mode"] = "infrastructure"
	wifi["ssid"] = append([]byte(nil), ssid...)
	if wifiOpts.Hidden {
		wifi["hidden"] = true
	}
	if wifiOpts.Band != "" {
		wifi["band"] = wifiOpts.Band
	}
	if wifiOpts.BSSID != "" {
		wifi["bssid"] = wifiOpts.BSSID
	}

	switch c := cred.(type) {
	case Open, nil:
		// No security section at all.
	case WpaPsk:
		if c.PSK == "" {
			return nil, invalid("psk", "psk must not be empty")
		}
		wifi["security"] = "802-11-wireless-security"
		sec := m.section("802-11-wireless-security")
		sec["key-mgmt"] = "wpa-psk"
		sec["psk"] = c.PSK
		sec["psk-flags"] = uint32(0)
		sec["auth-alg"] = "open"
		sec["proto"] = []string{"rsn"}
		sec["pairwise"] = []string{"ccmp"}
		sec["group"] = []string{"ccmp"}
	case WpaEap:
		if err := validateEapOptions(c.Options); err != nil {
			return nil, err
		}
		wifi["security"] = "802-11-wireless-security"
		sec := m.section("802-11-wireless-security")
		sec["key-mgmt"] = "wpa-eap"
		sec["auth-alg"] = "open"

		eap := m.section("802-1x")
		eap["eap"] = []string{string(c.Options.Method)}
		eap["identity"] = c.Options.Identity
		eap["password"] = c.Options.Password
		eap["phase2-auth"] = string(c.Options.Phase2)
		if c.Options.AnonymousIdentity != "" {
			eap["anonymous-identity"] = c.Options.AnonymousIdentity
		}
		if c.Options.SystemCACerts {
			eap["system-ca-certs"] = true
		}
		if c.Options.CACertPath != "" {
			eap["ca-cert"] = c.Options.CACertPath
		}
		if c.Options.DomainSuffixMatch != "" {
			eap["domain-suffix-match"] = c.Options.DomainSuffixMatch
		}
	default:
		return nil, invalid("credential", "unsupported credential variant")
	}

	return m, nil
}

func validateEapOptions(o WpaEapOptions) error {
	if o.Method != EapPeap && o.Method != EapTtls {
		return invalid("method", "eap method must be peap or ttls")
	}
	if o.Identity == "" {
		return invalid("identity", "identity must not be empty")
	}
	if o.Phase2 != Phase2Mschapv2 && o.Phase2 != Phase2Pap {
		return invalid("phase2", "phase2 must be mschapv2 or pap")
	}
	if o.SystemCACerts && o.CACertPath != "" {
		return invalid("ca_cert_path", "at most one of system_ca_certs or ca_cert_path may be set")
	}
	if o.CACertPath != "" && !strings.HasPrefix(o.CACertPath, "file://") {
		return invalid("ca_cert_path", "ca cert path must be a file:// url")
	}
	return nil
}

// BuildEthernet constructs the minimal settings map for a wired
// connection (spec §4.1 "Ethernet").
func BuildEthernet(name string, opts Options) (SettingsMap, error) {
	if name == "" {
		return nil, invalid("name", "name must not be empty")
	}
	m := newSettings()
	writeConnectionCore(m, "802-3-ethernet", name, DeterministicUUID(name), opts)
	m.section("802-3-ethernet")
	return m, nil
}

// BuildBluetooth constructs the settings map for a Bluetooth PAN/DUN
// connection (spec §4.1 "Bluetooth").
func BuildBluetooth(name, bdaddr, role string, opts Options) (SettingsMap, error) {
	if name == "" {
		return nil, invalid("name", "name must not be empty")
	}
	if !validBDAddr(bdaddr) {
		return nil, invalid("bdaddr", "bdaddr must be XX:XX:XX:XX:XX:XX")
	}
	switch role {
	case "pan", "panu", "dun":
	default:
		return nil, invalid("role", "role must be pan, panu, or dun")
	}

	m := newSettings()
	writeConnectionCore(m, "bluetooth", name, DeterministicUUID(name), opts)
	bt := m.section("bluetooth")
	bt["bdaddr"] = bdaddr
	bt["type"] = role
	return m, nil
}

// ToVariantMap converts a SettingsMap into the dbus.Variant-wrapped form
// the daemon's AddConnection/AddAndActivateConnection methods expect
// (spec §6.2).
func (m SettingsMap) ToVariantMap() map[string]map[string]dbus.Variant {
	out := make(map[string]map[string]dbus.Variant, len(m))
	for section, fields := range m {
		f := make(map[string]dbus.Variant, len(fields))
		for k, v := range fields {
			f[k] = dbus.MakeVariant(v)
		}
		out[section] = f
	}
	return out
}
